package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/format"
	"github.com/agbru/forkjoin/internal/metrics"
	"github.com/agbru/forkjoin/internal/orchestration"
	"github.com/agbru/forkjoin/internal/progress"
	"github.com/agbru/forkjoin/internal/sysmon"
	"github.com/agbru/forkjoin/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter for CLI output.
// It wraps the DisplayProgress function to provide a spinner and progress bar
// display during reductions.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for ongoing reductions.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numStrategies int, out io.Writer) {
	DisplayProgress(wg, progressChan, numStrategies, out)
}

// CLIColorProvider implements apperrors.ColorProvider with the active theme.
type CLIColorProvider struct{}

var _ apperrors.ColorProvider = CLIColorProvider{}

func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// CLIResultPresenter implements orchestration.ResultPresenter for CLI output.
// It provides formatted, colorized output for results in the command-line
// interface.
type CLIResultPresenter struct{}

// Verify interface compliance.
var (
	_ orchestration.ResultPresenter   = CLIResultPresenter{}
	_ orchestration.DurationFormatter = CLIResultPresenter{}
	_ orchestration.ErrorHandler      = CLIResultPresenter{}
)

// PresentComparisonTable displays the comparison summary table with
// strategy names, durations, tree sizes and status in a formatted tabular
// layout. Uses manual padding to correctly handle ANSI color codes.
func (p CLIResultPresenter) PresentComparisonTable(results []orchestration.CalculationResult, out io.Writer) {
	fmt.Fprintf(out, "\n%s\n", ui.Heading("Comparison Summary"))

	const (
		nameHeader     = "Strategy"
		durationHeader = "Duration"
		leavesHeader   = "Leaves"
	)
	maxNameLen, maxDurationLen, maxLeavesLen := len(nameHeader), len(durationHeader), len(leavesHeader)
	durations := make([]string, len(results))
	leaves := make([]string, len(results))
	for i, res := range results {
		maxNameLen = max(maxNameLen, len(res.Name))
		durations[i] = p.formatMean(res)
		maxDurationLen = max(maxDurationLen, len([]rune(durations[i])))
		leaves[i] = format.FormatNumber(res.Stats.Leaves)
		maxLeavesLen = max(maxLeavesLen, len(leaves[i]))
	}

	fmt.Fprintf(out, "%s%s%s%s   %s%s%s%s   %s%s%s%s   %sStatus%s\n",
		ui.ColorUnderline(), nameHeader, ui.ColorReset(), padRight("", maxNameLen-len(nameHeader)),
		ui.ColorUnderline(), durationHeader, ui.ColorReset(), padRight("", maxDurationLen-len(durationHeader)),
		ui.ColorUnderline(), leavesHeader, ui.ColorReset(), padRight("", maxLeavesLen-len(leavesHeader)),
		ui.ColorUnderline(), ui.ColorReset())

	for i, res := range results {
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(out, "%s%s%s%s   %s%s%s%s   %s%s   %s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(), padRight("", maxNameLen-len(res.Name)),
			ui.ColorYellow(), durations[i], ui.ColorReset(), padRight("", maxDurationLen-len([]rune(durations[i]))),
			leaves[i], padRight("", maxLeavesLen-len(leaves[i])),
			status)
	}
}

// formatMean renders the mean duration, followed by the standard deviation
// when several runs were timed.
func (p CLIResultPresenter) formatMean(res orchestration.CalculationResult) string {
	d := p.FormatDuration(res.Duration)
	if len(res.Runs) > 1 {
		d += " ± " + p.FormatDuration(res.StdDev)
	}
	return d
}

// padRight returns s followed by length spaces.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", length, "")
}

// PresentResult displays the agreed result.
func (CLIResultPresenter) PresentResult(result orchestration.CalculationResult, opts orchestration.PresentationOptions, out io.Writer) {
	DisplayResult(result, opts, out)
}

// FormatDuration formats a duration for display using the CLI's standard
// duration formatting.
func (CLIResultPresenter) FormatDuration(d time.Duration) string {
	if d == 0 {
		return "< 1µs"
	}
	return format.FormatExecutionDuration(d)
}

// HandleError handles run errors and returns an appropriate exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleCalculationError(err, duration, out, CLIColorProvider{})
}

// DisplayMemoryStats shows memory statistics after the runs.
func DisplayMemoryStats(after metrics.MemorySnapshot, delta metrics.MemoryDelta, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Heap in use:     %s\n", format.FormatBytes(after.HeapAlloc))
	fmt.Fprintf(out, "  Heap reserved:   %s\n", format.FormatBytes(after.HeapSys))
	fmt.Fprintf(out, "  GC cycles:       %d\n", delta.GCCycles)
	if delta.PauseTotal > 0 {
		fmt.Fprintf(out, "  GC pause total:  %.2fms\n", float64(delta.PauseTotal)/1e6)
	} else {
		fmt.Fprintf(out, "  GC pause total:  0ms\n")
	}
}

// DisplaySystemStats shows system-wide utilization over the runs.
func DisplaySystemStats(s sysmon.Stats, out io.Writer) {
	fmt.Fprintf(out, "\nSystem Stats:\n")
	fmt.Fprintf(out, "  CPU utilization: %.1f%%\n", s.CPUPercent)
	if len(s.PerCPU) > 0 {
		fmt.Fprintf(out, "  Busy cores:      %d of %d\n", s.BusyCores(sysmon.BusyCoreThreshold), len(s.PerCPU))
	}
	fmt.Fprintf(out, "  Memory in use:   %.1f%%\n", s.MemPercent)
}

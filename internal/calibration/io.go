package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/forkjoin/internal/format"
	"github.com/agbru/forkjoin/internal/ui"
)

// printCalibrationResults formats and prints the calibration results table.
// The candidate equal to the array size is labelled as the sequential
// baseline.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestThreshold int) {
	fmt.Fprintf(out, "\n%s\n", ui.Heading("Calibration Summary"))
	sequential := 0
	for _, res := range results {
		sequential = max(sequential, res.Threshold)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sThreshold%s    │ %sExecution Time%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 25))
	for _, res := range results {
		thresholdLabel := format.FormatNumber(int64(res.Threshold))
		if res.Threshold == sequential {
			thresholdLabel = "Sequential"
		}
		durationStr := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			durationStr = format.FormatExecutionDuration(res.Duration)
			if res.Duration == 0 {
				durationStr = "< 1µs"
			}
		}
		highlight := ""
		if res.Threshold == bestThreshold && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12s%s │ %s%s%s%s\n", ui.ColorCyan(), thresholdLabel, ui.ColorReset(), ui.ColorYellow(), durationStr, ui.ColorReset(), highlight)
	}
	tw.Flush()
}

// printCalibrationOutput prints the retained threshold.
func printCalibrationOutput(p *CalibrationProfile, out io.Writer) {
	fmt.Fprintf(out, "%sCalibration%s: threshold=%s%s%s workers=%s%d%s (took %s)\n",
		ui.ColorGreen(), ui.ColorReset(),
		ui.ColorYellow(), format.FormatNumber(int64(p.OptimalThreshold)), ui.ColorReset(),
		ui.ColorYellow(), p.Workers, ui.ColorReset(),
		p.CalibrationTime)
}

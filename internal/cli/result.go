package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/forkjoin/internal/format"
	"github.com/agbru/forkjoin/internal/orchestration"
	"github.com/agbru/forkjoin/internal/ui"
)

// CombineLabel returns the display name of a combine function ("max" -> "Max").
func CombineLabel(combine string) string {
	if combine == "" {
		return "Result"
	}
	return strings.ToUpper(combine[:1]) + combine[1:]
}

// DisplayResult writes the reduced value and, in verbose mode, the shape of
// the task tree and the individual run timings.
func DisplayResult(result orchestration.CalculationResult, opts orchestration.PresentationOptions, out io.Writer) {
	fmt.Fprintf(out, "\n%s\n", ui.Heading("Result"))
	fmt.Fprintf(out, "%s of %s%s%s elements: %s%s%s\n",
		CombineLabel(opts.Combine),
		ui.ColorCyan(), format.FormatNumber(int64(opts.Size)), ui.ColorReset(),
		ui.ColorGreen(), format.FormatNumber(result.Result), ui.ColorReset())
	fmt.Fprintf(out, "Fastest strategy: %s%s%s in %s%s%s\n",
		ui.ColorBlue(), result.Name, ui.ColorReset(),
		ui.ColorYellow(), format.FormatExecutionDuration(result.Duration), ui.ColorReset())

	if !opts.Verbose {
		return
	}
	fmt.Fprintf(out, "\nTask tree: %d splits, %d leaves, depth %d\n",
		result.Stats.Splits, result.Stats.Leaves, result.Stats.MaxDepth)
	if len(result.Runs) > 1 {
		runs := make([]string, len(result.Runs))
		for i, d := range result.Runs {
			runs[i] = format.FormatExecutionDuration(d)
		}
		fmt.Fprintf(out, "Runs: %s (stddev %s)\n", strings.Join(runs, ", "), format.FormatExecutionDuration(result.StdDev))
	}
}

// FormatQuietResult formats a result for quiet mode output: the bare value,
// suitable for scripting.
func FormatQuietResult(value int64) string {
	return fmt.Sprintf("%d", value)
}

// DisplayQuietResult outputs a result in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, value int64) {
	fmt.Fprintln(out, FormatQuietResult(value))
}

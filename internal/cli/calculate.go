package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/agbru/forkjoin/internal/config"
	"github.com/agbru/forkjoin/internal/format"
	"github.com/agbru/forkjoin/internal/orchestration"
	"github.com/agbru/forkjoin/internal/ui"
)

// PrintExecutionConfig displays the current execution configuration to the user.
// It shows the dataset, the timeout, environment details and the fork/join
// parameters.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "%s\n", ui.Heading("Execution Configuration"))
	fmt.Fprintf(out, "Reducing %s%s%s values in [0, %d) with %s%s%s (seed %d), timeout %s%s%s.\n",
		ui.ColorMagenta(), format.FormatNumber(int64(cfg.Size)), ui.ColorReset(), cfg.Bound,
		ui.ColorMagenta(), cfg.Combine, ui.ColorReset(), cfg.Seed,
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s, %s/%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset(),
		runtime.GOOS, runtime.GOARCH)
	if features := CPUFeatures(); len(features) > 0 {
		fmt.Fprintf(out, "CPU features: %s.\n", strings.Join(features, ", "))
	}
	fmt.Fprintf(out, "Fork/join: threshold=%s%s%s, workers=%s%d%s, runs=%d.\n",
		ui.ColorCyan(), format.FormatNumber(int64(cfg.Threshold)), ui.ColorReset(),
		ui.ColorCyan(), cfg.Workers, ui.ColorReset(), cfg.Runs)
}

// CPUFeatures lists the SIMD extensions detected on this processor.
func CPUFeatures() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE42, "SSE4.2")
		add(cpu.X86.HasAVX, "AVX")
		add(cpu.X86.HasAVX2, "AVX2")
		add(cpu.X86.HasAVX512F, "AVX-512")
		add(cpu.X86.HasBMI2, "BMI2")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "ASIMD")
		add(cpu.ARM64.HasSVE, "SVE")
		add(cpu.ARM64.HasATOMICS, "LSE atomics")
	}
	return features
}

// PrintExecutionMode displays the execution mode (single strategy vs comparison).
//
// Parameters:
//   - strategies: The strategies that will be executed.
//   - out: The writer for standard output.
func PrintExecutionMode(strategies []orchestration.Strategy, out io.Writer) {
	var modeDesc string
	switch len(strategies) {
	case 0:
		modeDesc = "no strategy selected"
	case 1:
		modeDesc = fmt.Sprintf("Single reduction with the %s%s%s strategy",
			ui.ColorGreen(), strategies[0].Name(), ui.ColorReset())
	default:
		names := make([]string, len(strategies))
		for i, s := range strategies {
			names[i] = s.Name()
		}
		modeDesc = fmt.Sprintf("Comparison of %d strategies (%s)", len(strategies), strings.Join(names, ", "))
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n%s\n", ui.Heading("Starting Execution"))
}

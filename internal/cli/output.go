// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayResult], [DisplayQuietResult], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatQuietResult].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteReportToFile].

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agbru/forkjoin/internal/config"
	"github.com/agbru/forkjoin/internal/orchestration"
)

// Report is the JSON document written by --output.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Size        int              `json:"size"`
	Bound       int64            `json:"bound"`
	Seed        uint64           `json:"seed"`
	Combine     string           `json:"combine"`
	Threshold   int              `json:"threshold"`
	Workers     int              `json:"workers"`
	NumCPU      int              `json:"num_cpu"`
	GoVersion   string           `json:"go_version"`
	Strategies  []StrategyReport `json:"strategies"`
}

// StrategyReport is one strategy's entry in a Report.
type StrategyReport struct {
	Name     string    `json:"name"`
	Result   *int64    `json:"result,omitempty"`
	MeanMs   float64   `json:"mean_ms"`
	StdDevMs float64   `json:"stddev_ms"`
	RunsMs   []float64 `json:"runs_ms"`
	Splits   int64     `json:"splits"`
	Leaves   int64     `json:"leaves"`
	MaxDepth int64     `json:"max_depth"`
	Error    string    `json:"error,omitempty"`
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// NewReport builds the report of a run.
func NewReport(cfg config.AppConfig, results []orchestration.CalculationResult) Report {
	r := Report{
		GeneratedAt: time.Now().UTC(),
		Size:        cfg.Size,
		Bound:       cfg.Bound,
		Seed:        cfg.Seed,
		Combine:     cfg.Combine,
		Threshold:   cfg.Threshold,
		Workers:     cfg.Workers,
		NumCPU:      runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		Strategies:  make([]StrategyReport, 0, len(results)),
	}
	for _, res := range results {
		sr := StrategyReport{
			Name:     res.Name,
			MeanMs:   milliseconds(res.Duration),
			StdDevMs: milliseconds(res.StdDev),
			RunsMs:   make([]float64, len(res.Runs)),
			Splits:   res.Stats.Splits,
			Leaves:   res.Stats.Leaves,
			MaxDepth: res.Stats.MaxDepth,
		}
		for i, d := range res.Runs {
			sr.RunsMs[i] = milliseconds(d)
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		} else {
			value := res.Result
			sr.Result = &value
		}
		r.Strategies = append(r.Strategies, sr)
	}
	return r
}

// WriteReportToFile writes the report as indented JSON to path, creating
// parent directories as needed.
//
// Parameters:
//   - report: The report to write.
//   - path: The destination file.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteReportToFile(report Report, path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/forkjoin/internal/progress"
	"github.com/agbru/forkjoin/internal/reduce"
)

// CalculationResult encapsulates the outcome of running one strategy.
// It serves as the shared domain type between orchestration and presentation layers.
type CalculationResult struct {
	// Name is the strategy name (e.g., "pool").
	Name string
	// Result is the reduced value. Meaningless if Err is set.
	Result int64
	// Duration is the mean duration over all runs.
	Duration time.Duration
	// StdDev is the standard deviation of the run durations; 0 for a single run.
	StdDev time.Duration
	// Runs holds the duration of every completed run.
	Runs []time.Duration
	// Stats describes the task tree of the last run.
	Stats reduce.Stats
	// Err contains any error that occurred during the runs.
	Err error
}

// PresentationOptions configures how results are presented to the user.
type PresentationOptions struct {
	Size    int
	Combine string
	Verbose bool
	Quiet   bool
}

// ProgressReporter defines the interface for displaying run progress.
// This interface decouples the orchestration layer from the presentation layer.
//
// Implementations handle the visual representation of progress (spinners,
// progress bars, etc.) while the orchestration layer focuses on coordinating
// the runs.
type ProgressReporter interface {
	// DisplayProgress starts displaying progress updates from the channel.
	// It should be called in a separate goroutine and will run until the
	// progressChan is closed.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving progress updates from strategies.
	//   - numStrategies: The number of strategies being tracked.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numStrategies int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numStrategies int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numStrategies int, out io.Writer) {
	f(wg, progressChan, numStrategies, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
// Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines the interface for presenting run results.
// This interface decouples the orchestration layer from presentation concerns.
type ResultPresenter interface {
	// PresentComparisonTable displays the comparison summary table.
	PresentComparisonTable(results []CalculationResult, out io.Writer)

	// PresentResult displays the agreed result.
	PresentResult(result CalculationResult, opts PresentationOptions, out io.Writer)

	ErrorHandler
}

// DurationFormatter formats durations for display.
type DurationFormatter interface {
	FormatDuration(d time.Duration) string
}

// ErrorHandler handles run errors and returns exit codes.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}

package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/logging"
	"github.com/agbru/forkjoin/internal/metrics"
	"github.com/agbru/forkjoin/internal/progress"
	"github.com/agbru/forkjoin/internal/reduce"
)

const tracerName = "github.com/agbru/forkjoin/internal/orchestration"

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of dropping updates when
// the UI is slow to consume them.
const ProgressBufferMultiplier = 5

// ExecutionOptions controls how ExecuteStrategies runs the strategies.
type ExecutionOptions struct {
	StrategyOptions
	// Runs is the number of timed repetitions per strategy (at least 1).
	Runs int
	// Concurrency is how many strategies may run at once (at least 1).
	Concurrency int
	// Metrics receives durations and the task tree. May be nil.
	Metrics *metrics.Metrics
	// Logger receives per-run debug events. May be nil.
	Logger logging.Logger
}

// ExecuteStrategies runs every strategy Runs times over data and collects
// the timings.
//
// Strategies run on an errgroup limited to opts.Concurrency, so the default
// of 1 keeps timings free of interference. Each run is wrapped in an
// OpenTelemetry span and reported to Prometheus when opts.Metrics is set.
// The first failing run of a strategy ends that strategy; the others keep
// going.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - strategies: The strategies to execute.
//   - data: The shared, read-only input.
//   - opts: Reduction and execution parameters.
//   - progressReporter: Displays updates (use NullProgressReporter for quiet mode).
//   - out: The io.Writer for displaying progress updates.
//
// Returns:
//   - []CalculationResult: One result per strategy, in input order.
func ExecuteStrategies(ctx context.Context, strategies []Strategy, data []int64, opts ExecutionOptions, progressReporter ProgressReporter, out io.Writer) []CalculationResult {
	runs := max(1, opts.Runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Concurrency))

	results := make([]CalculationResult, len(strategies))
	progressChan := make(chan progress.ProgressUpdate, len(strategies)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(strategies), out)

	tracer := otel.Tracer(tracerName)
	for i, s := range strategies {
		g.Go(func() error {
			report := progress.ChannelCallback(progressChan, i)
			results[i] = runStrategy(ctx, tracer, s, data, opts, runs, report)
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

func runStrategy(ctx context.Context, tracer trace.Tracer, s Strategy, data []int64, opts ExecutionOptions, runs int, report progress.ProgressCallback) CalculationResult {
	name := s.Name()
	res := CalculationResult{Name: name, Runs: make([]time.Duration, 0, runs)}

	threshold := opts.Threshold
	if name == StrategySequential {
		threshold = len(data)
	}

	for run := range runs {
		runOpts := opts.StrategyOptions
		observers := []reduce.Observer{opts.Observer, newLeafProgress(report, len(data), threshold, run, runs)}
		if opts.Metrics != nil {
			observers = append(observers, opts.Metrics.Observer(name))
			opts.Metrics.IncrementActiveReductions()
		}
		runOpts.Observer = reduce.Observers(observers...)

		spanCtx, span := tracer.Start(ctx, "reduce."+name, trace.WithAttributes(
			attribute.String("forkjoin.strategy", name),
			attribute.Int("forkjoin.run", run),
			attribute.Int("forkjoin.size", len(data)),
			attribute.Int("forkjoin.threshold", threshold),
		))
		start := time.Now()
		value, stats, err := s.Reduce(spanCtx, data, runOpts)
		elapsed := time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int64("forkjoin.splits", stats.Splits),
				attribute.Int64("forkjoin.leaves", stats.Leaves),
			)
		}
		span.End()

		if opts.Metrics != nil {
			opts.Metrics.DecrementActiveReductions()
			opts.Metrics.ObserveReduction(name, elapsed, err)
		}
		if opts.Logger != nil {
			opts.Logger.Debug("reduction finished",
				logging.String("strategy", name),
				logging.Int("run", run),
				logging.Duration("elapsed", elapsed),
				logging.Int64("leaves", stats.Leaves),
			)
		}

		if err != nil {
			res.Err = err
			break
		}
		if run > 0 && value != res.Result {
			res.Err = apperrors.CalculationError{
				Strategy: name,
				Cause:    fmt.Errorf("run %d returned %d, previous runs returned %d", run, value, res.Result),
			}
			break
		}
		res.Result = value
		res.Stats = stats
		res.Runs = append(res.Runs, elapsed)
		report(float64(run+1) / float64(runs))
	}

	res.Duration, res.StdDev = summarizeDurations(res.Runs)
	return res
}

// summarizeDurations returns the mean and the sample standard deviation.
func summarizeDurations(ds []time.Duration) (mean, stddev time.Duration) {
	switch len(ds) {
	case 0:
		return 0, 0
	case 1:
		return ds[0], 0
	}
	xs := make([]float64, len(ds))
	for i, d := range ds {
		xs[i] = float64(d)
	}
	m, sd := stat.MeanStdDev(xs, nil)
	return time.Duration(m), time.Duration(sd)
}

// AnalyzeComparisonResults processes the results of every strategy and
// generates a summary report.
//
// It sorts the results by mean duration, validates consistency across
// successful strategies, and displays a comparative table.
//
// Parameters:
//   - results: The slice of results to analyze.
//   - opts: Presentation parameters.
//   - presenter: The result presenter for display formatting.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeComparisonResults(results []CalculationResult, opts PresentationOptions, presenter ResultPresenter, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstValidResult *CalculationResult
	var firstError error
	successCount := 0

	for i := range results {
		if results[i].Err != nil {
			if firstError == nil {
				firstError = results[i].Err
			}
		} else {
			successCount++
			if firstValidResult == nil {
				firstValidResult = &results[i]
			}
		}
	}

	if !opts.Quiet {
		presenter.PresentComparisonTable(results, out)
	}

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No strategy could complete the reduction.\n")
		return presenter.HandleError(firstError, 0, out)
	}

	for _, res := range results {
		if res.Err == nil && res.Result != firstValidResult.Result {
			fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! %s returned %d but %s returned %d.\n",
				res.Name, res.Result, firstValidResult.Name, firstValidResult.Result)
			return apperrors.ExitErrorMismatch
		}
	}

	if !opts.Quiet {
		if firstError != nil {
			fmt.Fprintf(out, "\nGlobal Status: Partial success. Some strategies failed; the others agree.\n")
		} else {
			fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
		}
	}
	presenter.PresentResult(*firstValidResult, opts, out)
	return apperrors.ExitSuccess
}

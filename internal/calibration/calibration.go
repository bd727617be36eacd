package calibration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/forkjoin/internal/config"
	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/orchestration"
	"github.com/agbru/forkjoin/internal/parallel"
	"github.com/agbru/forkjoin/internal/progress"
)

type calibrationResult struct {
	Threshold int
	Duration  time.Duration
	Err       error
}

// Options configures a calibration run.
type Options struct {
	// Quick uses the reduced candidate set.
	Quick bool
	// Progress receives the fraction of candidates measured. May be nil.
	Progress progress.ProgressCallback
	// Colors renders error messages.
	Colors apperrors.ColorProvider
}

// RunCalibration times the pool strategy over every candidate threshold,
// keeping the best of cfg.Runs repetitions for each, prints the table,
// and saves the fastest threshold to cfg.CalibrationProfile.
//
// Parameters:
//   - ctx: Cancels the calibration between and within measurements.
//   - out: Receives the table.
//   - cfg: Supplies workers, combine function, runs and profile path.
//   - data: The array measured on.
//   - opts: Presentation options.
//
// Returns:
//   - int: An exit code.
func RunCalibration(ctx context.Context, out io.Writer, cfg config.AppConfig, data []int64, opts Options) int {
	start := time.Now()
	workers := cfg.EffectiveWorkers()
	combine, err := orchestration.CombineByName(cfg.Combine)
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, out, opts.Colors)
	}
	strategy, err := orchestration.NewStrategy(parallel.KindPool)
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, out, opts.Colors)
	}

	candidates := GenerateThresholds(len(data), workers)
	if opts.Quick {
		candidates = GenerateQuickThresholds(len(data), workers)
	}
	fmt.Fprintf(out, "Calibrating %d thresholds on %d elements with %d workers...\n", len(candidates), len(data), workers)

	results := make([]calibrationResult, 0, len(candidates))
	for i, threshold := range candidates {
		sopts := orchestration.StrategyOptions{Threshold: threshold, Workers: workers, Combine: combine}
		res := measure(ctx, strategy, data, sopts, max(1, cfg.Runs))
		if ctx.Err() != nil {
			return apperrors.HandleCalculationError(ctx.Err(), time.Since(start), out, opts.Colors)
		}
		results = append(results, res)
		if opts.Progress != nil {
			opts.Progress(float64(i+1) / float64(len(candidates)))
		}
	}

	best, ok := fastest(results)
	printCalibrationResults(out, results, best.Threshold)
	if !ok {
		fmt.Fprintln(out, "No threshold completed the reduction.")
		return apperrors.HandleCalculationError(results[0].Err, time.Since(start), out, opts.Colors)
	}

	profile := NewProfile()
	profile.OptimalThreshold = best.Threshold
	profile.Workers = workers
	profile.CalibrationSize = len(data)
	profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()
	if cfg.CalibrationProfile != "" {
		if err := profile.SaveProfile(cfg.CalibrationProfile); err != nil {
			fmt.Fprintf(out, "Warning: could not save calibration profile: %v\n", err)
		} else {
			fmt.Fprintf(out, "Profile saved to %s\n", cfg.CalibrationProfile)
		}
	}
	printCalibrationOutput(profile, out)
	return apperrors.ExitSuccess
}

// measure returns the fastest of runs repetitions.
func measure(ctx context.Context, s orchestration.Strategy, data []int64, opts orchestration.StrategyOptions, runs int) calibrationResult {
	res := calibrationResult{Threshold: opts.Threshold, Duration: -1}
	for range runs {
		start := time.Now()
		_, _, err := s.Reduce(ctx, data, opts)
		elapsed := time.Since(start)
		if err != nil {
			res.Err = err
			return res
		}
		if res.Duration < 0 || elapsed < res.Duration {
			res.Duration = elapsed
		}
	}
	return res
}

// fastest returns the successful result with the lowest duration. Ties go to
// the larger threshold, which builds the smaller tree.
func fastest(results []calibrationResult) (calibrationResult, bool) {
	var best calibrationResult
	found := false
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if !found || r.Duration < best.Duration || (r.Duration == best.Duration && r.Threshold > best.Threshold) {
			best, found = r, true
		}
	}
	return best, found
}

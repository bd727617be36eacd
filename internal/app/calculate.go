package app

import (
	"context"
	"fmt"
	"io"

	"github.com/agbru/forkjoin/internal/cli"
	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/metrics"
	"github.com/agbru/forkjoin/internal/orchestration"
	"github.com/agbru/forkjoin/internal/sysmon"
)

// quietPresenter prints only the reduced value.
type quietPresenter struct {
	cli.CLIResultPresenter
}

func (quietPresenter) PresentResult(result orchestration.CalculationResult, _ orchestration.PresentationOptions, out io.Writer) {
	cli.DisplayQuietResult(out, result.Result)
}

// runCalculate orchestrates the execution of the CLI reduction command.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.withLifecycle(ctx)
	defer cancel()

	combine, err := orchestration.CombineByName(a.Config.Combine)
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, out, cli.CLIColorProvider{})
	}
	strategies := orchestration.GetStrategiesToRun(a.Config.Strategy)
	if len(strategies) == 0 {
		return apperrors.HandleCalculationError(
			apperrors.NewConfigError("unknown strategy %q", a.Config.Strategy), 0, out, cli.CLIColorProvider{})
	}

	collector := metrics.NewMemoryCollector()
	before := collector.Snapshot()

	data, code := a.generateData(ctx, out)
	if code != apperrors.ExitSuccess {
		return code
	}

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(strategies, out)
	}

	var progressReporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if a.Config.Quiet {
		progressReporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	}

	opts := orchestration.ExecutionOptions{
		StrategyOptions: orchestration.StrategyOptions{
			Threshold: a.Config.Threshold,
			Workers:   a.Config.Workers,
			Combine:   combine,
		},
		Runs:        a.Config.Runs,
		Concurrency: a.Config.Concurrency,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
	}
	sysmon.Baseline()
	results := orchestration.ExecuteStrategies(ctx, strategies, data, opts, progressReporter, progressOut)
	system := sysmon.Sample()

	after := collector.Snapshot()
	if a.Metrics != nil {
		a.Metrics.RecordMemory(after)
		a.Metrics.RecordSystem(system)
	}

	var presenter orchestration.ResultPresenter = cli.CLIResultPresenter{}
	if a.Config.Quiet {
		presenter = quietPresenter{}
	}
	presentation := orchestration.PresentationOptions{
		Size:    a.Config.Size,
		Combine: a.Config.Combine,
		Verbose: a.Config.Verbose,
		Quiet:   a.Config.Quiet,
	}
	report := cli.NewReport(a.Config, results)
	exitCode := orchestration.AnalyzeComparisonResults(results, presentation, presenter, out)

	if a.Config.OutputFile != "" {
		if err := cli.WriteReportToFile(report, a.Config.OutputFile); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error writing report: %v\n", err)
			if exitCode == apperrors.ExitSuccess {
				exitCode = apperrors.ExitErrorGeneric
			}
		} else if !a.Config.Quiet {
			fmt.Fprintf(out, "Report saved to %s\n", a.Config.OutputFile)
		}
	}

	if a.Config.Verbose && !a.Config.Quiet {
		cli.DisplayMemoryStats(after, after.Since(before), out)
		cli.DisplaySystemStats(system, out)
	}

	if a.Config.Metrics && a.Metrics != nil {
		fmt.Fprintln(out)
		if err := a.Metrics.WriteText(out); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error writing metrics: %v\n", err)
		}
	}

	return exitCode
}

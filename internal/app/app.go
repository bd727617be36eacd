package app

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/forkjoin/internal/calibration"
	"github.com/agbru/forkjoin/internal/cli"
	"github.com/agbru/forkjoin/internal/config"
	"github.com/agbru/forkjoin/internal/dataset"
	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/logging"
	"github.com/agbru/forkjoin/internal/metrics"
	"github.com/agbru/forkjoin/internal/orchestration"
	"github.com/agbru/forkjoin/internal/progress"
	"github.com/agbru/forkjoin/internal/ui"
)

// Application represents the forkjoin application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer
	Logger    logging.Logger
	Metrics   *metrics.Metrics
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger sets the logger receiving per-run debug events.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// WithMetrics sets the Prometheus collectors used during the runs.
func WithMetrics(m *metrics.Metrics) AppOption {
	return func(a *Application) { a.Metrics = m }
}

// New creates a new Application instance by parsing command-line arguments.
//
// A cached calibration profile matching the array size supplies the
// threshold when none was given; otherwise the threshold is derived from
// the size and the worker count.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	programName := "forkjoin"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, orchestration.StrategyNames())
	if err != nil {
		return nil, err
	}

	if cfgWithProfile, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
		cfg = cfgWithProfile
	} else {
		cfg = config.ApplyAdaptiveThresholds(cfg)
	}

	if app.Logger == nil {
		app.Logger = logging.NewLogger(errWriter, "forkjoin")
	}
	if app.Metrics == nil {
		app.Metrics = metrics.NewMetrics()
	}

	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	level, err := logging.ParseLevel(a.Config.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	if a.Config.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	ui.InitTheme(a.Config.NoColor)

	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}
	return a.runCalculate(ctx, out)
}

// withLifecycle bounds ctx by the configured timeout and by SIGINT/SIGTERM.
func (a *Application) withLifecycle(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stopSignals()
		cancelTimeout()
	}
}

// generateData builds the input array, reporting failures with the
// calculation error handler.
func (a *Application) generateData(ctx context.Context, out io.Writer) ([]int64, int) {
	start := time.Now()
	data, err := dataset.Generate(ctx, a.Config.Size, a.Config.Bound, a.Config.Seed)
	if err != nil {
		return nil, apperrors.HandleCalculationError(err, time.Since(start), out, cli.CLIColorProvider{})
	}
	a.Logger.Debug("dataset generated",
		logging.Int("size", len(data)),
		logging.Int64("bound", a.Config.Bound),
		logging.Uint64("seed", a.Config.Seed),
		logging.Duration("elapsed", time.Since(start)),
	)
	return data, apperrors.ExitSuccess
}

// runCalibration runs the full calibration mode.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.withLifecycle(ctx)
	defer cancel()

	data, code := a.generateData(ctx, out)
	if code != apperrors.ExitSuccess {
		return code
	}

	opts := calibration.Options{Colors: cli.CLIColorProvider{}}
	if a.Config.Quiet {
		return calibration.RunCalibration(ctx, io.Discard, a.Config, data, opts)
	}

	progressChan := make(chan progress.ProgressUpdate, orchestration.ProgressBufferMultiplier)
	opts.Progress = progress.ChannelCallback(progressChan, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	var buffered bytes.Buffer
	go cli.DisplayProgress(&wg, progressChan, 1, out)
	code = calibration.RunCalibration(ctx, &buffered, a.Config, data, opts)
	close(progressChan)
	wg.Wait()
	_, _ = out.Write(buffered.Bytes())
	return code
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

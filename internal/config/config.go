// Package config defines the application configuration and how it is
// assembled from command-line flags, FORKJOIN_* environment variables and an
// optional TOML file.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/logging"
	"github.com/agbru/forkjoin/internal/parallel"
	"github.com/agbru/forkjoin/internal/reduce"
)

// EnvPrefix is prepended to every environment variable the configuration reads.
const EnvPrefix = "FORKJOIN_"

// Default values for the configuration. DefaultSize and DefaultBound match the
// classic demonstration: thirty million values drawn from [0, 100).
const (
	DefaultSize     = 30_000_000
	DefaultBound    = 100
	DefaultSeed     = 1
	DefaultCombine  = "max"
	DefaultStrategy = "all"
	DefaultRuns     = 1
	DefaultTimeout  = 5 * time.Minute
	DefaultLogLevel = "warn"
)

// MaxGoroutineForks caps the goroutines an explicit threshold may make the
// unbounded goroutines strategy start in a single reduction.
const MaxGoroutineForks = 1 << 20

// CombineNames lists the accepted values of the combine setting.
var CombineNames = []string{"max", "min", "sum"}

// AppConfig aggregates all configuration parameters of the application.
type AppConfig struct {
	// Size is the number of elements in the generated array.
	Size int
	// Bound is the exclusive upper bound of the generated values.
	Bound int64
	// Seed seeds the array generator.
	Seed uint64
	// Threshold is the range length at or below which the reducer folds
	// sequentially. 0 selects Size/Workers.
	Threshold int
	// Workers is the size of the fork/join pool. 0 selects runtime.NumCPU().
	Workers int
	// Combine names the combine function (max, min, sum).
	Combine string
	// Strategy names the strategy to run, or "all".
	Strategy string
	// Runs is the number of timed repetitions per strategy.
	Runs int
	// Concurrency is how many strategies may run at the same time.
	Concurrency int
	// Timeout bounds the whole execution.
	Timeout time.Duration
	// Calibrate runs threshold calibration instead of the comparison.
	Calibrate bool
	// CalibrationProfile is the path of the cached calibration profile.
	CalibrationProfile string
	// ConfigFile is an optional TOML file with default values.
	ConfigFile string
	// OutputFile receives a JSON report of the run when set.
	OutputFile string
	// Metrics prints the Prometheus exposition after the run.
	Metrics bool
	// LogLevel is the zerolog level name.
	LogLevel string
	// Verbose, Quiet and NoColor control presentation.
	Verbose bool
	Quiet   bool
	NoColor bool
}

// fileConfig mirrors the subset of AppConfig that may be set from a TOML
// file. Pointers distinguish absent keys from zero values.
type fileConfig struct {
	Size        *int    `toml:"size"`
	Bound       *int64  `toml:"bound"`
	Seed        *uint64 `toml:"seed"`
	Threshold   *int    `toml:"threshold"`
	Workers     *int    `toml:"workers"`
	Combine     *string `toml:"combine"`
	Strategy    *string `toml:"strategy"`
	Runs        *int    `toml:"runs"`
	Concurrency *int    `toml:"concurrency"`
	Timeout     *string `toml:"timeout"`
	LogLevel    *string `toml:"log_level"`
	Output      *string `toml:"output"`
	Metrics     *bool   `toml:"metrics"`
}

// DefaultCalibrationProfile returns ~/.forkjoin_calibration.json, or a file
// in the working directory when the home directory is unknown.
func DefaultCalibrationProfile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".forkjoin_calibration.json"
	}
	return filepath.Join(home, ".forkjoin_calibration.json")
}

// ParseConfig builds the configuration from the command-line arguments.
//
// Priority, highest first: flags, FORKJOIN_* environment variables, the TOML
// file named by --config, built-in defaults. The adaptive threshold is
// applied separately by ApplyAdaptiveThresholds.
//
// Parameters:
//   - programName: The name of the program (for usage output).
//   - args: The arguments, without the program name.
//   - errorWriter: Receives usage and parse errors.
//   - availableStrategies: The names accepted by --strategy besides "all".
//
// Returns:
//   - AppConfig: The parsed configuration.
//   - error: flag.ErrHelp when help was requested, a ConfigError otherwise.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableStrategies []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	cfg := AppConfig{}
	fs.IntVar(&cfg.Size, "n", DefaultSize, "Number of elements to generate.")
	fs.IntVar(&cfg.Size, "size", DefaultSize, "Number of elements to generate (alias for -n).")
	fs.Int64Var(&cfg.Bound, "bound", DefaultBound, "Exclusive upper bound of generated values.")
	fs.Uint64Var(&cfg.Seed, "seed", DefaultSeed, "Seed of the array generator.")
	fs.IntVar(&cfg.Threshold, "threshold", 0, "Range length at or below which ranges are folded sequentially (0 = size/workers).")
	fs.IntVar(&cfg.Workers, "workers", 0, "Fork/join pool size (0 = number of CPUs).")
	fs.StringVar(&cfg.Combine, "combine", DefaultCombine, fmt.Sprintf("Combine function %v.", CombineNames))
	fs.StringVar(&cfg.Strategy, "strategy", DefaultStrategy, fmt.Sprintf("Strategy to run: 'all' or one of %v. 'goroutines' starts one goroutine per split, unbounded.", availableStrategies))
	fs.IntVar(&cfg.Runs, "runs", DefaultRuns, "Timed repetitions per strategy.")
	fs.IntVar(&cfg.Concurrency, "concurrency", 1, "Strategies allowed to run at the same time.")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")
	fs.BoolVar(&cfg.Calibrate, "calibrate", false, "Time candidate thresholds and store the best one.")
	fs.StringVar(&cfg.CalibrationProfile, "calibration-profile", DefaultCalibrationProfile(), "Path of the calibration profile.")
	fs.StringVar(&cfg.ConfigFile, "config", "", "TOML configuration file.")
	fs.StringVar(&cfg.OutputFile, "output", "", "Write a JSON report to this file.")
	fs.StringVar(&cfg.OutputFile, "o", "", "Write a JSON report to this file (shorthand).")
	fs.BoolVar(&cfg.Metrics, "metrics", false, "Print Prometheus metrics after the run.")
	fs.StringVar(&cfg.LogLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error, disabled).")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose output (shorthand).")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output: tree statistics and memory usage.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Quiet mode: print only the result.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	if path := configFilePath(cfg, fs); path != "" {
		cfg.ConfigFile = path
		if err := applyFile(&cfg, fs, path); err != nil {
			return AppConfig{}, err
		}
	}
	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(availableStrategies); err != nil {
		fmt.Fprintln(errorWriter, "Error:", err)
		return AppConfig{}, err
	}
	return cfg, nil
}

func configFilePath(cfg AppConfig, fs *flag.FlagSet) string {
	if isFlagSet(fs, "config") {
		return cfg.ConfigFile
	}
	return os.Getenv(EnvPrefix + "CONFIG")
}

// applyFile loads the TOML file at path and copies every key it sets into
// cfg, except for settings given explicitly on the command line.
func applyFile(cfg *AppConfig, fs *flag.FlagSet, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return apperrors.NewConfigError("reading config file %s: %v", path, err)
	}

	setInt := func(dst *int, src *int, flags ...string) {
		if src != nil && !isFlagSetAny(fs, flags...) {
			*dst = *src
		}
	}
	setString := func(dst *string, src *string, flags ...string) {
		if src != nil && !isFlagSetAny(fs, flags...) {
			*dst = *src
		}
	}

	setInt(&cfg.Size, fc.Size, "n", "size")
	setInt(&cfg.Threshold, fc.Threshold, "threshold")
	setInt(&cfg.Workers, fc.Workers, "workers")
	setInt(&cfg.Runs, fc.Runs, "runs")
	setInt(&cfg.Concurrency, fc.Concurrency, "concurrency")
	setString(&cfg.Combine, fc.Combine, "combine")
	setString(&cfg.Strategy, fc.Strategy, "strategy")
	setString(&cfg.LogLevel, fc.LogLevel, "log-level")
	setString(&cfg.OutputFile, fc.Output, "output", "o")
	if fc.Bound != nil && !isFlagSet(fs, "bound") {
		cfg.Bound = *fc.Bound
	}
	if fc.Seed != nil && !isFlagSet(fs, "seed") {
		cfg.Seed = *fc.Seed
	}
	if fc.Metrics != nil && !isFlagSet(fs, "metrics") {
		cfg.Metrics = *fc.Metrics
	}
	if fc.Timeout != nil && !isFlagSet(fs, "timeout") {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return apperrors.NewConfigError("config file %s: invalid timeout %q", path, *fc.Timeout)
		}
		cfg.Timeout = d
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c AppConfig) Validate(availableStrategies []string) error {
	switch {
	case c.Size <= 0:
		return apperrors.NewConfigError("size must be greater than zero, got %d", c.Size)
	case c.Bound <= 0:
		return apperrors.NewConfigError("bound must be greater than zero, got %d", c.Bound)
	case c.Threshold < 0:
		return apperrors.NewConfigError("threshold must not be negative, got %d", c.Threshold)
	case c.Workers < 0:
		return apperrors.NewConfigError("workers must not be negative, got %d", c.Workers)
	case c.Runs < 1:
		return apperrors.NewConfigError("runs must be at least 1, got %d", c.Runs)
	case c.Concurrency < 1:
		return apperrors.NewConfigError("concurrency must be at least 1, got %d", c.Concurrency)
	case c.Timeout <= 0:
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	case c.Quiet && c.Verbose:
		return apperrors.NewConfigError("--quiet and --verbose are mutually exclusive")
	}
	if !slices.Contains(CombineNames, c.Combine) {
		return apperrors.NewConfigError("unknown combine function %q (available: %v)", c.Combine, CombineNames)
	}
	if c.Strategy != "all" && !slices.Contains(availableStrategies, c.Strategy) {
		return apperrors.NewConfigError("unknown strategy %q (available: all, %v)", c.Strategy, availableStrategies)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.runsGoroutines() && c.Threshold > 0 {
		if forks := reduce.LeafCount(c.Size, c.Threshold) - 1; forks > MaxGoroutineForks {
			return apperrors.NewConfigError(
				"threshold %d makes the goroutines strategy start %d goroutines (limit %d); raise --threshold or pick another --strategy",
				c.Threshold, forks, MaxGoroutineForks)
		}
	}
	return nil
}

func (c AppConfig) runsGoroutines() bool {
	return c.Strategy == "all" || c.Strategy == parallel.KindGoroutines
}

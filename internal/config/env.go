// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny reports whether any of the named flags was explicitly set.
// Used for aliased flags such as -n/--size.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride maps an env key (without the FORKJOIN_ prefix) to the flag
// name(s) it shadows and a function that applies the value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

func intOverride(key string, dst func(*AppConfig) *int, flags ...string) envOverride {
	return envOverride{key, flags, func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst(c) = parsed
		}
	}}
}

func boolOverride(key string, dst func(*AppConfig) *bool, flags ...string) envOverride {
	return envOverride{key, flags, func(c *AppConfig, v string) {
		p := dst(c)
		*p = parseBoolEnv(v, *p)
	}}
}

func stringOverride(key string, dst func(*AppConfig) *string, flags ...string) envOverride {
	return envOverride{key, flags, func(c *AppConfig, v string) {
		*dst(c) = v
	}}
}

// envOverrides is the declarative table of all environment variable overrides.
// Unparseable values are ignored and leave the previous setting in place.
var envOverrides = []envOverride{
	// Numeric overrides
	intOverride("SIZE", func(c *AppConfig) *int { return &c.Size }, "n", "size"),
	intOverride("THRESHOLD", func(c *AppConfig) *int { return &c.Threshold }, "threshold"),
	intOverride("WORKERS", func(c *AppConfig) *int { return &c.Workers }, "workers"),
	intOverride("RUNS", func(c *AppConfig) *int { return &c.Runs }, "runs"),
	intOverride("CONCURRENCY", func(c *AppConfig) *int { return &c.Concurrency }, "concurrency"),
	{"BOUND", []string{"bound"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Bound = parsed
		}
	}},
	{"SEED", []string{"seed"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}},

	// Duration overrides
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Timeout = parsed
		}
	}},

	// String overrides
	stringOverride("COMBINE", func(c *AppConfig) *string { return &c.Combine }, "combine"),
	stringOverride("STRATEGY", func(c *AppConfig) *string { return &c.Strategy }, "strategy"),
	stringOverride("OUTPUT", func(c *AppConfig) *string { return &c.OutputFile }, "output", "o"),
	stringOverride("CALIBRATION_PROFILE", func(c *AppConfig) *string { return &c.CalibrationProfile }, "calibration-profile"),
	stringOverride("LOG_LEVEL", func(c *AppConfig) *string { return &c.LogLevel }, "log-level"),

	// Boolean overrides
	boolOverride("VERBOSE", func(c *AppConfig) *bool { return &c.Verbose }, "v", "verbose"),
	boolOverride("QUIET", func(c *AppConfig) *bool { return &c.Quiet }, "q", "quiet"),
	boolOverride("CALIBRATE", func(c *AppConfig) *bool { return &c.Calibrate }, "calibrate"),
	boolOverride("METRICS", func(c *AppConfig) *bool { return &c.Metrics }, "metrics"),
	boolOverride("NO_COLOR", func(c *AppConfig) *bool { return &c.NoColor }, "no-color"),
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
//
// Supported environment variables (all prefixed with FORKJOIN_):
//   - SIZE, BOUND, SEED, THRESHOLD, WORKERS, RUNS, CONCURRENCY, TIMEOUT
//   - COMBINE, STRATEGY, OUTPUT, CALIBRATION_PROFILE, LOG_LEVEL
//   - VERBOSE, QUIET, CALIBRATE, METRICS, NO_COLOR
//
// FORKJOIN_CONFIG is read by ParseConfig before these overrides run.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}

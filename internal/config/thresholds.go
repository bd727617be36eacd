package config

import (
	"runtime"

	"github.com/agbru/forkjoin/internal/reduce"
)

// Threshold resolution chain (highest priority first):
//   1. --threshold flag
//   2. FORKJOIN_THRESHOLD
//   3. threshold key of the TOML config file
//   4. Cached calibration profile (~/.forkjoin_calibration.json)
//   5. Adaptive estimation (this file): size / workers

// EffectiveWorkers returns the configured pool size, or runtime.NumCPU()
// when it is left at zero.
func (c AppConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// ApplyAdaptiveThresholds fills in the settings left at their zero default.
// Workers becomes the CPU count and Threshold becomes Size/Workers (at
// least 1), which gives one leaf per worker.
func ApplyAdaptiveThresholds(cfg AppConfig) AppConfig {
	cfg.Workers = cfg.EffectiveWorkers()
	if cfg.Threshold == 0 {
		cfg.Threshold = reduce.DefaultThreshold(cfg.Size, cfg.Workers)
	}
	return cfg
}

package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agbru/forkjoin/internal/config"
)

// DefaultProfileFileName is the file name of the cached profile inside the
// home directory.
const DefaultProfileFileName = ".forkjoin_calibration.json"

// CurrentProfileVersion is bumped whenever the profile layout changes;
// profiles of another version are ignored.
const CurrentProfileVersion = 1

// CalibrationProfile is the persisted outcome of a calibration run together
// with the hardware it was measured on.
type CalibrationProfile struct {
	ProfileVersion int       `json:"profile_version"`
	CalibratedAt   time.Time `json:"calibrated_at"`

	NumCPU    int    `json:"num_cpu"`
	GOARCH    string `json:"goarch"`
	GOOS      string `json:"goos"`
	GoVersion string `json:"go_version"`
	WordSize  int    `json:"word_size"`

	OptimalThreshold int    `json:"optimal_threshold"`
	Workers          int    `json:"workers"`
	CalibrationSize  int    `json:"calibration_size"`
	CalibrationTime  string `json:"calibration_time"`
}

// NewProfile returns a profile describing the current machine.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		ProfileVersion: CurrentProfileVersion,
		CalibratedAt:   time.Now(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
	}
}

// GetDefaultProfilePath returns the default profile location.
func GetDefaultProfilePath() string {
	return config.DefaultCalibrationProfile()
}

// SaveProfile writes the profile as indented JSON, creating parent
// directories as needed.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating profile directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

func loadProfile(path string) (*CalibrationProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p CalibrationProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", path, err)
	}
	return &p, nil
}

// LoadOrCreateProfile loads the profile at path. When it is missing or
// unreadable a fresh profile is returned and loaded is false.
func LoadOrCreateProfile(path string) (profile *CalibrationProfile, loaded bool) {
	p, err := loadProfile(path)
	if err != nil {
		return NewProfile(), false
	}
	return p, true
}

// IsValid reports whether the profile was produced by this profile version
// on hardware like the current machine.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	current := NewProfile()
	return p.ProfileVersion == CurrentProfileVersion &&
		p.NumCPU == current.NumCPU &&
		p.GOARCH == current.GOARCH &&
		p.WordSize == current.WordSize
}

// Matches reports whether the profile is valid and was measured on an array
// of the given size. Thresholds scale with the size, so a profile for one
// size says little about another.
func (p *CalibrationProfile) Matches(size int) bool {
	return p.IsValid() && p.CalibrationSize == size && p.OptimalThreshold > 0
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *CalibrationProfile) String() string {
	return fmt.Sprintf("calibration profile v%d: threshold=%d workers=%d size=%d (%s/%s, %d CPUs, %s, calibrated %s)",
		p.ProfileVersion, p.OptimalThreshold, p.Workers, p.CalibrationSize,
		p.GOOS, p.GOARCH, p.NumCPU, p.GoVersion, p.CalibratedAt.Format(time.RFC3339))
}

// LoadCachedCalibration applies the profile at path to cfg when the user
// left the threshold adaptive and the profile matches the machine and the
// configured size. It reports whether the profile was applied.
func LoadCachedCalibration(cfg config.AppConfig, path string) (config.AppConfig, bool) {
	if cfg.Threshold != 0 || path == "" {
		return cfg, false
	}
	p, err := loadProfile(path)
	if err != nil || !p.Matches(cfg.Size) {
		return cfg, false
	}
	cfg.Threshold = p.OptimalThreshold
	if cfg.Workers == 0 {
		cfg.Workers = p.Workers
	}
	return config.ApplyAdaptiveThresholds(cfg), true
}

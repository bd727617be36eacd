package calibration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/agbru/forkjoin/internal/config"
)

func TestNewProfile(t *testing.T) {
	t.Parallel()
	profile := NewProfile()

	if profile.NumCPU != runtime.NumCPU() {
		t.Errorf("NumCPU = %d, want %d", profile.NumCPU, runtime.NumCPU())
	}
	if profile.GOARCH != runtime.GOARCH {
		t.Errorf("GOARCH = %s, want %s", profile.GOARCH, runtime.GOARCH)
	}
	if profile.GOOS != runtime.GOOS {
		t.Errorf("GOOS = %s, want %s", profile.GOOS, runtime.GOOS)
	}
	if profile.ProfileVersion != CurrentProfileVersion {
		t.Errorf("ProfileVersion = %d, want %d", profile.ProfileVersion, CurrentProfileVersion)
	}
	expectedWordSize := 32 << (^uint(0) >> 63)
	if profile.WordSize != expectedWordSize {
		t.Errorf("WordSize = %d, want %d", profile.WordSize, expectedWordSize)
	}
	if profile.CalibratedAt.IsZero() {
		t.Error("CalibratedAt is zero")
	}
}

func TestProfileSaveLoad(t *testing.T) {
	t.Parallel()
	profilePath := filepath.Join(t.TempDir(), "nested", "test_profile.json")

	original := NewProfile()
	original.OptimalThreshold = 4096
	original.Workers = 8
	original.CalibrationSize = 10_000_000
	original.CalibrationTime = "1m30s"

	if err := original.SaveProfile(profilePath); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	loaded, err := loadProfile(profilePath)
	if err != nil {
		t.Fatalf("loadProfile failed: %v", err)
	}
	if loaded.OptimalThreshold != 4096 || loaded.Workers != 8 || loaded.CalibrationSize != 10_000_000 {
		t.Errorf("loaded profile differs: %+v", loaded)
	}
	if loaded.NumCPU != original.NumCPU {
		t.Errorf("NumCPU = %d, want %d", loaded.NumCPU, original.NumCPU)
	}
}

func TestProfileIsValid(t *testing.T) {
	t.Parallel()
	if !NewProfile().IsValid() {
		t.Error("Expected newly created profile to be valid")
	}

	tests := []struct {
		name   string
		mutate func(*CalibrationProfile)
	}{
		{"wrong CPU count", func(p *CalibrationProfile) { p.NumCPU = 999 }},
		{"wrong architecture", func(p *CalibrationProfile) { p.GOARCH = "invalid_arch" }},
		{"wrong word size", func(p *CalibrationProfile) { p.WordSize = 16 }},
		{"wrong version", func(p *CalibrationProfile) { p.ProfileVersion = 999 }},
	}
	for _, tt := range tests {
		p := NewProfile()
		tt.mutate(p)
		if p.IsValid() {
			t.Errorf("%s: expected profile to be invalid", tt.name)
		}
	}

	var nilProfile *CalibrationProfile
	if nilProfile.IsValid() {
		t.Error("Expected nil profile to be invalid")
	}
}

func TestProfileMatches(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	p.OptimalThreshold = 100
	p.CalibrationSize = 5000
	if !p.Matches(5000) {
		t.Error("expected match on the calibrated size")
	}
	if p.Matches(6000) {
		t.Error("expected no match on another size")
	}
	p.OptimalThreshold = 0
	if p.Matches(5000) {
		t.Error("a profile without threshold must not match")
	}
}

func TestProfileIsStale(t *testing.T) {
	t.Parallel()
	profile := NewProfile()
	if profile.IsStale(time.Hour) {
		t.Error("Expected fresh profile to not be stale")
	}
	profile.CalibratedAt = time.Now().Add(-2 * time.Hour)
	if !profile.IsStale(time.Hour) {
		t.Error("Expected old profile to be stale")
	}
	var nilProfile *CalibrationProfile
	if !nilProfile.IsStale(time.Hour) {
		t.Error("Expected nil profile to be stale")
	}
}

func TestProfileString(t *testing.T) {
	t.Parallel()
	profile := NewProfile()
	profile.OptimalThreshold = 4096
	if str := profile.String(); !strings.Contains(str, "threshold=4096") {
		t.Errorf("String() = %q, should mention the threshold", str)
	}
}

func TestLoadInvalidProfiles(t *testing.T) {
	t.Parallel()
	if _, err := loadProfile("/nonexistent/path/to/profile.json"); err == nil {
		t.Error("Expected error loading nonexistent profile")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(invalidPath, []byte("not valid json"), 0o644); err != nil {
		t.Fatalf("Failed to write invalid file: %v", err)
	}
	if _, err := loadProfile(invalidPath); err == nil {
		t.Error("Expected error loading invalid JSON")
	}
}

func TestLoadOrCreateProfile(t *testing.T) {
	t.Parallel()
	profilePath := filepath.Join(t.TempDir(), "profile.json")

	profile, loaded := LoadOrCreateProfile(profilePath)
	if loaded {
		t.Error("Expected loaded to be false for nonexistent file")
	}
	profile.OptimalThreshold = 8192
	if err := profile.SaveProfile(profilePath); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	profile2, loaded2 := LoadOrCreateProfile(profilePath)
	if !loaded2 {
		t.Error("Expected loaded to be true for existing file")
	}
	if profile2.OptimalThreshold != 8192 {
		t.Errorf("Loaded profile has wrong threshold: %d", profile2.OptimalThreshold)
	}
}

func TestLoadCachedCalibration(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultProfileFileName)
	p := NewProfile()
	p.OptimalThreshold = 777
	p.Workers = 3
	p.CalibrationSize = 10_000
	if err := p.SaveProfile(path); err != nil {
		t.Fatal(err)
	}

	cfg, loaded := LoadCachedCalibration(config.AppConfig{Size: 10_000}, path)
	if !loaded {
		t.Fatal("expected the profile to be applied")
	}
	if cfg.Threshold != 777 || cfg.Workers != 3 {
		t.Errorf("got threshold=%d workers=%d", cfg.Threshold, cfg.Workers)
	}

	if _, loaded := LoadCachedCalibration(config.AppConfig{Size: 20_000}, path); loaded {
		t.Error("profile for another size must not be applied")
	}
	if cfg, loaded := LoadCachedCalibration(config.AppConfig{Size: 10_000, Threshold: 5}, path); loaded || cfg.Threshold != 5 {
		t.Error("explicit threshold must win over the profile")
	}
	if _, loaded := LoadCachedCalibration(config.AppConfig{Size: 10_000}, filepath.Join(t.TempDir(), "missing.json")); loaded {
		t.Error("missing profile must not be applied")
	}
}

func TestGetDefaultProfilePath(t *testing.T) {
	t.Parallel()
	path := GetDefaultProfilePath()
	if filepath.Base(path) != DefaultProfileFileName {
		t.Errorf("Path %s doesn't end with %s", path, DefaultProfileFileName)
	}
}

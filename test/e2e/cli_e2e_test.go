package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestCLI_E2E verifies the built binary functions correctly
func TestCLI_E2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}

	tmpDir := t.TempDir()
	binName := "forkjoin"
	if runtime.GOOS == "windows" {
		binName = "forkjoin.exe"
	}
	binPath := filepath.Join(tmpDir, binName)

	// go test runs with the package directory as CWD; build from the module root.
	rootDir := "../.."

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/forkjoin")
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build forkjoin: %v", err)
	}

	profile := filepath.Join(tmpDir, "profile.json")
	report := filepath.Join(tmpDir, "out", "report.json")

	tests := []struct {
		name     string
		args     []string
		wantOut  string // substring match (case-insensitive)
		wantCode int
	}{
		{
			name:     "Basic Reduction",
			args:     []string{"-n", "1000", "--seed", "1", "--strategy", "pool"},
			wantOut:  "Max of 1,000 elements",
			wantCode: 0,
		},
		{
			name:     "Help",
			args:     []string{"--help"},
			wantOut:  "usage",
			wantCode: 0,
		},
		{
			name:     "All Strategies Comparison",
			args:     []string{"-n", "5000", "--strategy", "all"},
			wantOut:  "Success",
			wantCode: 0,
		},
		{
			name:     "Quiet Mode",
			args:     []string{"-n", "1000", "--bound", "1", "--quiet"},
			wantOut:  "0",
			wantCode: 0,
		},
		{
			name:     "Sum Combine",
			args:     []string{"-n", "100", "--bound", "1", "--combine", "sum", "--strategy", "errgroup"},
			wantOut:  "Sum of 100 elements",
			wantCode: 0,
		},
		{
			name:     "Very Short Timeout",
			args:     []string{"-n", "30000000", "--timeout", "1ms"},
			wantOut:  "timeout",
			wantCode: 2,
		},
		{
			name:     "Invalid Size Zero",
			args:     []string{"-n", "0"},
			wantOut:  "size must be greater than zero",
			wantCode: 4,
		},
		{
			name:     "Unknown Strategy",
			args:     []string{"--strategy", "quantum"},
			wantOut:  "unknown strategy",
			wantCode: 4,
		},
		{
			name:     "Unbounded Goroutines Rejected",
			args:     []string{"--strategy", "goroutines", "--threshold", "1"},
			wantOut:  "raise --threshold",
			wantCode: 4,
		},
		{
			name:     "JSON Report",
			args:     []string{"-n", "2000", "--strategy", "inline", "-o", report},
			wantOut:  "Report saved",
			wantCode: 0,
		},
		{
			name:     "Metrics",
			args:     []string{"-n", "2000", "--strategy", "goroutines", "--metrics"},
			wantOut:  "forkjoin_reductions_total",
			wantCode: 0,
		},
		{
			name:     "Calibration",
			args:     []string{"-n", "4096", "--calibrate", "--calibration-profile", profile},
			wantOut:  "Profile saved",
			wantCode: 0,
		},
		{
			name:     "Version Flag",
			args:     []string{"--version"},
			wantOut:  "forkjoin",
			wantCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binPath, tt.args...)
			cmd.Env = append(os.Environ(), "NO_COLOR=1", "HOME="+tmpDir)
			output, err := cmd.CombinedOutput()
			outStr := string(output)

			if tt.wantCode == 0 {
				if err != nil {
					t.Errorf("Command failed unexpectedly: %v\nOutput: %s", err, outStr)
				}
			} else {
				var exitErr *exec.ExitError
				if err == nil {
					t.Errorf("Expected exit code %d, but command succeeded.\nOutput: %s", tt.wantCode, outStr)
				} else if errors.As(err, &exitErr) && exitErr.ExitCode() != tt.wantCode {
					t.Errorf("Exit code = %d, want %d.\nOutput: %s", exitErr.ExitCode(), tt.wantCode, outStr)
				}
			}

			if tt.wantOut != "" && !strings.Contains(strings.ToLower(outStr), strings.ToLower(tt.wantOut)) {
				t.Errorf("Output missing expected string.\nExpected: %q\nGot:\n%s", tt.wantOut, outStr)
			}
		})
	}

	if _, err := os.Stat(report); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

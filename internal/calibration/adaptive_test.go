package calibration

import (
	"slices"
	"testing"
)

func TestGenerateThresholds(t *testing.T) {
	t.Parallel()
	thresholds := GenerateThresholds(1_000_000, 4)

	want := []int{15625, 31250, 62500, 125000, 250000, 500000, 1000000}
	if !slices.Equal(thresholds, want) {
		t.Errorf("GenerateThresholds(1e6, 4) = %v, want %v", thresholds, want)
	}
}

func TestGenerateThresholdsSmallArrays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		size    int
		workers int
	}{
		{"fewer elements than workers", 3, 8},
		{"single element", 1, 4},
		{"single worker", 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			thresholds := GenerateThresholds(tt.size, tt.workers)
			if len(thresholds) == 0 {
				t.Fatal("expected at least one threshold")
			}
			if !slices.IsSorted(thresholds) {
				t.Errorf("thresholds not sorted: %v", thresholds)
			}
			if len(slices.Compact(slices.Clone(thresholds))) != len(thresholds) {
				t.Errorf("thresholds contain duplicates: %v", thresholds)
			}
			for _, th := range thresholds {
				if th < 1 || th > tt.size {
					t.Errorf("threshold %d outside [1, %d]", th, tt.size)
				}
			}
			if thresholds[len(thresholds)-1] != tt.size {
				t.Errorf("last threshold should be the sequential baseline %d, got %v", tt.size, thresholds)
			}
		})
	}
}

func TestGenerateQuickThresholds(t *testing.T) {
	t.Parallel()
	quick := GenerateQuickThresholds(1_000_000, 4)
	full := GenerateThresholds(1_000_000, 4)
	if len(quick) >= len(full) {
		t.Errorf("quick set (%d) should be smaller than the full set (%d)", len(quick), len(full))
	}
	for _, th := range quick {
		if !slices.Contains(full, th) {
			t.Errorf("quick threshold %d not in the full set %v", th, full)
		}
	}
}

func TestGenerateThresholdsEmpty(t *testing.T) {
	t.Parallel()
	if got := GenerateThresholds(0, 4); got != nil {
		t.Errorf("expected nil for an empty array, got %v", got)
	}
}

func BenchmarkGenerateThresholds(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_ = GenerateThresholds(30_000_000, 16)
	}
}

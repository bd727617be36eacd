// This file generates candidate thresholds from the dataset size and the
// worker count.

package calibration

import (
	"slices"

	"github.com/agbru/forkjoin/internal/reduce"
)

// ThresholdFactors scale the default threshold (size/workers) into the
// candidates tried by a full calibration.
var ThresholdFactors = []float64{1.0 / 16, 1.0 / 8, 1.0 / 4, 1.0 / 2, 1, 2, 4}

// QuickThresholdFactors is the reduced set used by quick calibration.
var QuickThresholdFactors = []float64{1.0 / 4, 1, 4}

// GenerateThresholds returns the candidate thresholds for an array of the
// given size on workers workers, in ascending order and without
// duplicates. The last candidate is always size itself, which folds the
// whole array as a single leaf and serves as the sequential baseline.
func GenerateThresholds(size, workers int) []int {
	return generate(size, workers, ThresholdFactors)
}

// GenerateQuickThresholds is GenerateThresholds with fewer candidates.
func GenerateQuickThresholds(size, workers int) []int {
	return generate(size, workers, QuickThresholdFactors)
}

func generate(size, workers int, factors []float64) []int {
	if size <= 0 {
		return nil
	}
	base := reduce.DefaultThreshold(size, workers)
	thresholds := make([]int, 0, len(factors)+1)
	for _, f := range factors {
		t := int(float64(base) * f)
		thresholds = append(thresholds, min(max(1, t), size))
	}
	thresholds = append(thresholds, size)
	slices.Sort(thresholds)
	return slices.Compact(thresholds)
}

package reduce

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/parallel"
)

// TestParallelMatchesSequential_PropertyBased checks that for every
// non-empty sequence and every threshold >= 1 the parallel reduction equals
// the sequential fold, for max, min and sum.
func TestParallelMatchesSequential_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	combines := map[string]CombineFunc[int64]{
		"max": Max[int64](),
		"min": Min[int64](),
		"sum": Sum[int64](),
	}
	pool := parallel.NewPool(4)

	for name, combine := range combines {
		properties.Property("reduce("+name+") equals the sequential fold", prop.ForAll(
			func(seq []int64, threshold int) bool {
				if len(seq) == 0 {
					return true
				}
				want, err := Sequential(seq, combine)
				if err != nil {
					return false
				}
				got, err := ReduceRange(context.Background(), seq, Range{0, len(seq)},
					Options{Threshold: threshold, Executor: pool}, combine)
				return err == nil && got == want
			},
			gen.SliceOf(gen.Int64Range(-1_000_000, 1_000_000)),
			gen.IntRange(1, 64),
		))
	}

	properties.TestingRun(t)
}

// TestSplitPointsArePure_PropertyBased checks that the decomposition depends
// only on the length of the range and the threshold, not on the executor.
func TestSplitPointsArePure_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("inline and pool executors split identically", prop.ForAll(
		func(length, threshold int) bool {
			seq := make([]int, length)
			var inline, pooled Trace
			if _, err := ReduceRange(context.Background(), seq, Range{0, length},
				Options{Threshold: threshold, Executor: parallel.Inline{}, Observer: &inline}, Max[int]()); err != nil {
				return false
			}
			if _, err := ReduceRange(context.Background(), seq, Range{0, length},
				Options{Threshold: threshold, Executor: parallel.NewPool(8), Observer: &pooled}, Max[int]()); err != nil {
				return false
			}
			return reflect.DeepEqual(inline.Points(), pooled.Points())
		},
		gen.IntRange(1, 5000),
		gen.IntRange(1, 300),
	))

	properties.TestingRun(t)
}

// TestLeavesCoverSequence_PropertyBased checks that the number of leaves is
// one more than the number of splits, as in any full binary tree.
func TestLeavesCoverSequence_PropertyBased(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("leaves = splits + 1", prop.ForAll(
		func(length, threshold int) bool {
			var counter Counter
			_, err := ReduceRange(context.Background(), make([]int8, length), Range{0, length},
				Options{Threshold: threshold, Observer: &counter}, Sum[int8]())
			s := counter.Stats()
			return err == nil && s.Leaves == s.Splits+1
		},
		gen.IntRange(1, 10_000),
		gen.IntRange(1, 500),
	))

	properties.Property("non-positive thresholds are always rejected", prop.ForAll(
		func(threshold int) bool {
			_, err := Reduce(context.Background(), []int{1, 2}, threshold, Max[int]())
			var target apperrors.InvalidThresholdError
			return errors.As(err, &target) && target.Threshold == threshold
		},
		gen.IntRange(-1000, 0),
	))

	properties.TestingRun(t)
}

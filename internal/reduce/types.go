package reduce

import (
	"cmp"
	"errors"
	"math"

	"golang.org/x/exp/constraints"
)

// Range is a half-open interval [Start, End) of indices into a sequence.
type Range struct {
	Start int
	End   int
}

// Len returns the number of elements the range covers.
func (r Range) Len() int { return r.End - r.Start }

// Split returns the midpoint of the range, start + (end-start)/2.
func (r Range) Split() (left, right Range) {
	mid := r.Start + r.Len()/2
	return Range{Start: r.Start, End: mid}, Range{Start: mid, End: r.End}
}

// CombineFunc merges two values into one. It must be associative and
// commutative, and free of side effects: it is applied both while folding a
// leaf range and while merging partial results of sibling ranges, in an
// order that depends on scheduling.
type CombineFunc[T any] func(a, b T) (T, error)

// Number is the set of element types the arithmetic combine functions accept.
type Number interface {
	constraints.Integer | constraints.Float
}

// ErrOverflow is returned by CheckedSum when the running total leaves the
// range of int64.
var ErrOverflow = errors.New("integer overflow")

// Max returns a combine function yielding the larger of two values.
func Max[T cmp.Ordered]() CombineFunc[T] {
	return func(a, b T) (T, error) { return max(a, b), nil }
}

// Min returns a combine function yielding the smaller of two values.
func Min[T cmp.Ordered]() CombineFunc[T] {
	return func(a, b T) (T, error) { return min(a, b), nil }
}

// Sum returns a combine function adding two values. Integer overflow wraps.
func Sum[T Number]() CombineFunc[T] {
	return func(a, b T) (T, error) { return a + b, nil }
}

// CheckedSum adds two int64 values and fails with ErrOverflow instead of
// wrapping around.
func CheckedSum() CombineFunc[int64] {
	return func(a, b int64) (int64, error) {
		if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
			return 0, ErrOverflow
		}
		return a + b, nil
	}
}

// DefaultThreshold returns length/workers, the range length at which the
// number of leaves roughly matches the number of workers. The result is
// never below 1.
func DefaultThreshold(length, workers int) int {
	if workers <= 0 {
		workers = 1
	}
	return max(1, length/workers)
}

// LeafCount returns the number of leaves the decomposition of a range of the
// given length produces for threshold. It follows the same midpoint rule as
// the reducer and returns 0 for invalid arguments.
func LeafCount(length, threshold int) int {
	if length <= 0 || threshold <= 0 {
		return 0
	}
	memo := make(map[int]int)
	var count func(n int) int
	count = func(n int) int {
		if n <= threshold {
			return 1
		}
		if c, ok := memo[n]; ok {
			return c
		}
		c := count(n/2) + count(n-n/2)
		memo[n] = c
		return c
	}
	return count(length)
}

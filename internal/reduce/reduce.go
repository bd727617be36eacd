package reduce

import (
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"sync"

	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/parallel"
)

// abortCheckInterval is how many elements a leaf folds between checks for a
// failure recorded by another task or a canceled context.
const abortCheckInterval = 4096

// errAborted stops tasks once another task has failed. It never escapes
// ReduceRange: the recorded error is returned instead.
var errAborted = errors.New("reduce: aborted")

// defaultPool is shared by every call that does not supply an executor.
var defaultPool = sync.OnceValue(func() *parallel.Pool {
	return parallel.NewPool(runtime.NumCPU())
})

// Options configures a reduction.
type Options struct {
	// Threshold is the range length at or below which a range is folded
	// sequentially instead of being split. Must be > 0.
	Threshold int
	// Executor runs sibling halves. nil selects a pool shared across calls
	// and sized to runtime.NumCPU().
	Executor parallel.Executor
	// Observer receives the shape of the task tree. May be nil.
	Observer Observer
}

// Reduce combines every element of seq. It is ReduceRange over the whole
// sequence with the shared default executor.
func Reduce[T any](ctx context.Context, seq []T, threshold int, combine CombineFunc[T]) (T, error) {
	return ReduceRange(ctx, seq, Range{Start: 0, End: len(seq)}, Options{Threshold: threshold}, combine)
}

// ReduceRange combines the elements of seq within r.
//
// The arguments are validated before any work starts: a range that is
// empty, inverted or out of bounds yields apperrors.InvalidRangeError and a
// non-positive threshold yields apperrors.InvalidThresholdError. In both
// cases neither the executor, the observer nor combine is called.
//
// A range of length one returns its element without calling combine.
//
// An error returned by combine, or a panic raised by it, is reported as an
// apperrors.CombineError. Once a task has failed, tasks that have not
// started yet return immediately; tasks already running finish and their
// results are discarded. The first error recorded is returned. Cancelling
// ctx has the same effect on tasks that have not started.
func ReduceRange[T any](ctx context.Context, seq []T, r Range, opts Options, combine CombineFunc[T]) (T, error) {
	var zero T
	if err := validateRange(r, len(seq)); err != nil {
		return zero, err
	}
	if opts.Threshold <= 0 {
		return zero, apperrors.InvalidThresholdError{Threshold: opts.Threshold}
	}
	if combine == nil {
		return zero, apperrors.ValidationError{Field: "combine", Message: "combine function is nil"}
	}

	t := &task[T]{
		ctx:       ctx,
		seq:       seq,
		threshold: opts.Threshold,
		combine:   combine,
		executor:  opts.Executor,
		observer:  opts.Observer,
	}
	if t.executor == nil {
		t.executor = defaultPool()
	}
	if t.observer == nil {
		t.observer = nopObserver{}
	}

	result, err := t.run(r, 0)
	if recorded := t.errs.Err(); recorded != nil {
		return zero, recorded
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}

// Sequential folds combine over seq from left to right in the calling
// goroutine. It is the reference the parallel reduction must agree with.
func Sequential[T any](seq []T, combine CombineFunc[T]) (T, error) {
	return ReduceRange(context.Background(), seq, Range{Start: 0, End: len(seq)},
		Options{Threshold: max(1, len(seq)), Executor: parallel.Inline{}}, combine)
}

func validateRange(r Range, length int) error {
	reason := ""
	switch {
	case r.Start < 0:
		reason = "start is negative"
	case r.Start > r.End:
		reason = "start exceeds end"
	case r.End > length:
		reason = "end exceeds sequence length"
	case r.Start == r.End:
		reason = "range is empty"
	default:
		return nil
	}
	return apperrors.InvalidRangeError{Start: r.Start, End: r.End, Length: length, Reason: reason}
}

// task holds the state shared by every node of one reduction.
type task[T any] struct {
	ctx       context.Context
	seq       []T
	threshold int
	combine   CombineFunc[T]
	executor  parallel.Executor
	observer  Observer
	errs      parallel.ErrorCollector
}

func (t *task[T]) run(r Range, depth int) (T, error) {
	var zero T
	if t.aborted(r) {
		return zero, errAborted
	}

	if r.Len() <= t.threshold {
		t.observer.OnLeaf(r, depth)
		return t.fold(r)
	}

	lr, rr := r.Split()
	t.observer.OnSplit(SplitPoint{Start: r.Start, Mid: lr.End, End: r.End, Depth: depth})

	var left, right T
	err := t.executor.Join(
		func() (err error) {
			left, err = t.run(lr, depth+1)
			return err
		},
		func() (err error) {
			right, err = t.run(rr, depth+1)
			return err
		},
	)
	if err != nil {
		return zero, err
	}
	return t.apply(r, left, right)
}

// aborted reports whether r should stop: another task failed, or the
// context is done, in which case its error is recorded.
func (t *task[T]) aborted(r Range) bool {
	if t.errs.Failed() {
		return true
	}
	if err := t.ctx.Err(); err != nil {
		t.errs.SetError(apperrors.WrapError(err, "reduce of range [%d, %d) interrupted", r.Start, r.End))
		return true
	}
	return false
}

func (t *task[T]) fold(r Range) (T, error) {
	acc := t.seq[r.Start]
	for i := r.Start + 1; i < r.End; i++ {
		if (i-r.Start)%abortCheckInterval == 0 && t.aborted(r) {
			var zero T
			return zero, errAborted
		}
		var err error
		if acc, err = t.apply(r, acc, t.seq[i]); err != nil {
			return acc, err
		}
	}
	return acc, nil
}

// apply calls combine, turning its errors and panics into a CombineError
// that is recorded for the whole reduction.
func (t *task[T]) apply(r Range, a, b T) (result T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = apperrors.CombineError{
				Start: r.Start,
				End:   r.End,
				Cause: apperrors.PanicError{Value: p, Stack: debug.Stack()},
			}
			t.errs.SetError(err)
		}
	}()
	result, err = t.combine(a, b)
	if err != nil {
		err = apperrors.CombineError{Start: r.Start, End: r.End, Cause: err}
		t.errs.SetError(err)
	}
	return result, err
}

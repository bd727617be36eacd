package parallel

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/forkjoin/internal/errors"
)

// Executor is the fork/join capability the reducer is written against.
//
// Join runs left and right, possibly concurrently, and returns only when both
// have finished. It returns the left-most non-nil error. If a thunk panics,
// the panic is recovered where it happened and raised again from Join as an
// apperrors.PanicError carrying the original stack.
type Executor interface {
	Join(left, right func() error) error
}

// Executor names accepted by NewExecutor.
const (
	KindPool       = "pool"
	KindGoroutines = "goroutines"
	KindErrGroup   = "errgroup"
	KindInline     = "inline"
)

var executorKinds = map[string]func(workers int) Executor{
	KindPool:       func(workers int) Executor { return NewPool(workers) },
	KindGoroutines: func(int) Executor { return Goroutines{} },
	KindErrGroup:   func(int) Executor { return ErrGroup{} },
	KindInline:     func(int) Executor { return Inline{} },
}

// Kinds returns the executor names accepted by NewExecutor, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(executorKinds))
	for k := range executorKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// NewExecutor returns the executor registered under kind. workers only
// matters for the pool; values <= 0 select runtime.NumCPU().
func NewExecutor(kind string, workers int) (Executor, error) {
	ctor, ok := executorKinds[kind]
	if !ok {
		return nil, apperrors.ValidationError{
			Field:   "executor",
			Message: fmt.Sprintf("unknown executor %q (available: %v)", kind, Kinds()),
		}
	}
	return ctor(workers), nil
}

// Pool bounds the number of concurrently running forked tasks with a
// semaphore sized to the number of workers.
//
// A fork that finds no free slot is executed inline by the caller. Parents
// blocked at a join therefore never wait on children that cannot be
// scheduled, and nested Joins cannot deadlock.
type Pool struct {
	sem chan struct{}
}

// NewPool creates a pool with the given number of workers.
// A value <= 0 uses runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{sem: make(chan struct{}, workers)}
}

// Workers returns the capacity of the pool.
func (p *Pool) Workers() int { return cap(p.sem) }

// Join implements Executor.
func (p *Pool) Join(left, right func() error) error {
	select {
	case p.sem <- struct{}{}:
	default:
		return inlineJoin(left, right)
	}

	var rightErr error
	var rightPanic any
	done := make(chan struct{})
	go func() {
		defer func() {
			rightPanic = wrapPanic(recover())
			<-p.sem
			close(done)
		}()
		rightErr = right()
	}()
	leftPanic, leftErr := runLeft(left)
	<-done
	return joinResult(leftErr, rightErr, leftPanic, rightPanic)
}

// Goroutines forks every right-hand thunk in a fresh goroutine, without any
// bound on their number.
type Goroutines struct{}

// Join implements Executor.
func (Goroutines) Join(left, right func() error) error {
	var rightErr error
	var rightPanic any
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer func() {
			rightPanic = wrapPanic(recover())
			wg.Done()
		}()
		rightErr = right()
	}()
	leftPanic, leftErr := runLeft(left)
	wg.Wait()
	return joinResult(leftErr, rightErr, leftPanic, rightPanic)
}

// ErrGroup runs both thunks through an errgroup.Group.
type ErrGroup struct{}

// Join implements Executor.
func (ErrGroup) Join(left, right func() error) error {
	var g errgroup.Group
	g.SetLimit(2)
	var leftErr, rightErr error
	var leftPanic, rightPanic any
	g.Go(func() error {
		defer func() { rightPanic = wrapPanic(recover()) }()
		rightErr = right()
		return nil
	})
	g.Go(func() error {
		defer func() { leftPanic = wrapPanic(recover()) }()
		leftErr = left()
		return nil
	})
	_ = g.Wait()
	return joinResult(leftErr, rightErr, leftPanic, rightPanic)
}

// Inline runs both thunks sequentially in the calling goroutine. It is the
// sequential twin of the other executors, useful for debugging and as a
// baseline. Nothing runs detached, so panics propagate unchanged.
type Inline struct{}

// Join implements Executor.
func (Inline) Join(left, right func() error) error {
	return inlineJoin(left, right)
}

func inlineJoin(left, right func() error) error {
	leftErr := left()
	rightErr := right()
	return firstError(leftErr, rightErr)
}

// runLeft runs the inline thunk of a fork, capturing a panic so the caller
// can still wait for the forked sibling before re-raising it.
func runLeft(left func() error) (p any, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = wrapPanic(r)
		}
	}()
	return nil, left()
}

// joinResult re-raises the left panic first, then the right one, and
// otherwise returns the left-most error.
func joinResult(leftErr, rightErr error, leftPanic, rightPanic any) error {
	if leftPanic != nil {
		panic(leftPanic)
	}
	if rightPanic != nil {
		panic(rightPanic)
	}
	return firstError(leftErr, rightErr)
}

func firstError(left, right error) error {
	if left != nil {
		return left
	}
	return right
}

// wrapPanic attaches the current stack to a recovered panic value.
// Values that already carry a stack are passed through unchanged.
func wrapPanic(p any) any {
	if p == nil {
		return nil
	}
	if _, ok := p.(apperrors.PanicError); ok {
		return p
	}
	return apperrors.PanicError{Value: p, Stack: debug.Stack()}
}

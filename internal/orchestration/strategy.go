package orchestration

import (
	"context"
	"fmt"
	"slices"

	apperrors "github.com/agbru/forkjoin/internal/errors"
	"github.com/agbru/forkjoin/internal/parallel"
	"github.com/agbru/forkjoin/internal/reduce"
)

// StrategySequential names the single-goroutine baseline.
const StrategySequential = "sequential"

// StrategyOptions parameterizes a single reduction.
type StrategyOptions struct {
	// Threshold is the leaf size of the fork/join strategies.
	Threshold int
	// Workers bounds the pool executor.
	Workers int
	// Combine merges two partial results.
	Combine reduce.CombineFunc[int64]
	// Observer receives the task tree. May be nil.
	Observer reduce.Observer
}

// Strategy computes the reduction of an int64 array one particular way.
type Strategy interface {
	// Name identifies the strategy in reports and on the command line.
	Name() string
	// Reduce combines every element of data and reports the shape of the
	// task tree it built.
	Reduce(ctx context.Context, data []int64, opts StrategyOptions) (int64, reduce.Stats, error)
}

// sequentialStrategy folds the whole array in the calling goroutine.
type sequentialStrategy struct{}

func (sequentialStrategy) Name() string { return StrategySequential }

func (sequentialStrategy) Reduce(ctx context.Context, data []int64, opts StrategyOptions) (int64, reduce.Stats, error) {
	var counter reduce.Counter
	ropts := reduce.Options{
		Threshold: max(1, len(data)),
		Executor:  parallel.Inline{},
		Observer:  reduce.Observers(&counter, opts.Observer),
	}
	v, err := reduce.ReduceRange(ctx, data, reduce.Range{End: len(data)}, ropts, opts.Combine)
	return v, counter.Stats(), err
}

// forkJoinStrategy runs the parallel reducer on the executor of the same
// name.
type forkJoinStrategy struct {
	kind string
}

func (s forkJoinStrategy) Name() string { return s.kind }

func (s forkJoinStrategy) Reduce(ctx context.Context, data []int64, opts StrategyOptions) (int64, reduce.Stats, error) {
	exec, err := parallel.NewExecutor(s.kind, opts.Workers)
	if err != nil {
		return 0, reduce.Stats{}, err
	}
	var counter reduce.Counter
	ropts := reduce.Options{
		Threshold: opts.Threshold,
		Executor:  exec,
		Observer:  reduce.Observers(&counter, opts.Observer),
	}
	v, err := reduce.ReduceRange(ctx, data, reduce.Range{End: len(data)}, ropts, opts.Combine)
	return v, counter.Stats(), err
}

// StrategyNames returns every registered strategy name, sorted.
func StrategyNames() []string {
	names := append([]string{StrategySequential}, parallel.Kinds()...)
	slices.Sort(names)
	return names
}

// NewStrategy returns the strategy registered under name.
func NewStrategy(name string) (Strategy, error) {
	if name == StrategySequential {
		return sequentialStrategy{}, nil
	}
	if slices.Contains(parallel.Kinds(), name) {
		return forkJoinStrategy{kind: name}, nil
	}
	return nil, apperrors.ValidationError{
		Field:   "strategy",
		Message: fmt.Sprintf("unknown strategy %q (available: %v)", name, StrategyNames()),
	}
}

// GetStrategiesToRun returns the strategies selected by name: every
// strategy in sorted order for "all", otherwise the single named one.
// Unknown names yield nil.
func GetStrategiesToRun(name string) []Strategy {
	if name == "all" {
		names := StrategyNames()
		strategies := make([]Strategy, 0, len(names))
		for _, n := range names {
			if s, err := NewStrategy(n); err == nil {
				strategies = append(strategies, s)
			}
		}
		return strategies
	}
	if s, err := NewStrategy(name); err == nil {
		return []Strategy{s}
	}
	return nil
}

// CombineByName returns the int64 combine function for a config name.
// "sum" detects overflow.
func CombineByName(name string) (reduce.CombineFunc[int64], error) {
	switch name {
	case "max":
		return reduce.Max[int64](), nil
	case "min":
		return reduce.Min[int64](), nil
	case "sum":
		return reduce.CheckedSum(), nil
	}
	return nil, apperrors.ValidationError{
		Field:   "combine",
		Message: fmt.Sprintf("unknown combine function %q", name),
	}
}

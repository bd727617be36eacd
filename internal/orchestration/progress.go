package orchestration

import (
	"sync/atomic"
	"time"

	"github.com/agbru/forkjoin/internal/format"
	"github.com/agbru/forkjoin/internal/progress"
	"github.com/agbru/forkjoin/internal/reduce"
)

// ProgressAggregator manages multi-strategy progress aggregation.
// It wraps format.ProgressWithETA and provides a higher-level API
// for consuming progress updates from a channel.
type ProgressAggregator struct {
	state         *format.ProgressWithETA
	numStrategies int
}

// NewProgressAggregator creates a new aggregator for the given number
// of strategies. Returns nil if numStrategies <= 0.
func NewProgressAggregator(numStrategies int) *ProgressAggregator {
	if numStrategies <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:         format.NewProgressWithETA(numStrategies),
		numStrategies: numStrategies,
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	// CalculatorIndex is the index of the strategy that sent the update.
	CalculatorIndex int
	// Value is the raw progress value from the update (0.0 to 1.0).
	Value float64
	// AverageProgress is the aggregated average across all strategies.
	AverageProgress float64
	// ETA is the estimated time remaining based on smoothed progress rate.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
func (a *ProgressAggregator) Update(update progress.ProgressUpdate) AggregatedProgress {
	avgProgress, eta := a.state.UpdateWithETA(update.CalculatorIndex, update.Value)
	return AggregatedProgress{
		CalculatorIndex: update.CalculatorIndex,
		Value:           update.Value,
		AverageProgress: avgProgress,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
// Useful for periodic refresh between updates (e.g., CLI ticker).
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// NumStrategies returns the number of strategies being tracked.
func (a *ProgressAggregator) NumStrategies() int {
	return a.numStrategies
}

// IsMultiStrategy returns true if tracking more than one strategy.
func (a *ProgressAggregator) IsMultiStrategy() bool {
	return a.numStrategies > 1
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan progress.ProgressUpdate) {
	for range progressChan {
	}
}

// leafProgress is a reduce.Observer that turns folded leaves into progress
// values. The expected leaf count is known up front from reduce.LeafCount,
// so the fraction of leaves started is the fraction of work dispatched.
// Run r of n maps onto [r/n, (r+1)/n).
type leafProgress struct {
	report   progress.ProgressCallback
	expected int64
	run      int
	runs     int
	leaves   atomic.Int64
	lastPct  atomic.Int64
}

func newLeafProgress(report progress.ProgressCallback, length, threshold, run, runs int) *leafProgress {
	return &leafProgress{
		report:   report,
		expected: int64(max(1, reduce.LeafCount(length, threshold))),
		run:      run,
		runs:     max(1, runs),
	}
}

func (p *leafProgress) OnSplit(reduce.SplitPoint) {}

func (p *leafProgress) OnLeaf(reduce.Range, int) {
	done := p.leaves.Add(1)
	overall := (float64(p.run) + float64(done)/float64(p.expected)) / float64(p.runs)
	// Only forward whole-percent changes; large trees have millions of leaves.
	pct := int64(overall * 100)
	if last := p.lastPct.Load(); pct > last && p.lastPct.CompareAndSwap(last, pct) && overall < 1 {
		p.report(overall)
	}
}

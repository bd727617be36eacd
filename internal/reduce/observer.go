package reduce

import (
	"slices"
	"sync"
	"sync/atomic"
)

// SplitPoint describes one internal node of the task tree: the range that
// was split, where, and at which depth (the root is depth 0).
type SplitPoint struct {
	Start, Mid, End int
	Depth           int
}

// Observer receives the shape of the task tree as it is built. Callbacks
// arrive concurrently from every executing task and must be safe for
// concurrent use.
type Observer interface {
	// OnSplit is called before the two halves of a range are scheduled.
	OnSplit(p SplitPoint)
	// OnLeaf is called before a range is folded sequentially.
	OnLeaf(r Range, depth int)
}

type nopObserver struct{}

func (nopObserver) OnSplit(SplitPoint) {}
func (nopObserver) OnLeaf(Range, int)  {}

type multiObserver []Observer

func (m multiObserver) OnSplit(p SplitPoint) {
	for _, o := range m {
		o.OnSplit(p)
	}
}

func (m multiObserver) OnLeaf(r Range, depth int) {
	for _, o := range m {
		o.OnLeaf(r, depth)
	}
}

// Observers fans callbacks out to every non-nil observer given.
func Observers(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nopObserver{}
	case 1:
		return m[0]
	}
	return m
}

// Stats summarises the shape of one task tree.
type Stats struct {
	Splits   int64
	Leaves   int64
	MaxDepth int64
}

// Counter is an Observer that counts splits and leaves and tracks the depth
// of the deepest leaf. The zero value is ready to use.
type Counter struct {
	splits   atomic.Int64
	leaves   atomic.Int64
	maxDepth atomic.Int64
}

// OnSplit implements Observer.
func (c *Counter) OnSplit(SplitPoint) { c.splits.Add(1) }

// OnLeaf implements Observer.
func (c *Counter) OnLeaf(_ Range, depth int) {
	c.leaves.Add(1)
	d := int64(depth)
	for {
		cur := c.maxDepth.Load()
		if d <= cur || c.maxDepth.CompareAndSwap(cur, d) {
			return
		}
	}
}

// Stats returns a snapshot of the counters.
func (c *Counter) Stats() Stats {
	return Stats{
		Splits:   c.splits.Load(),
		Leaves:   c.leaves.Load(),
		MaxDepth: c.maxDepth.Load(),
	}
}

// Trace is an Observer that records every split point.
type Trace struct {
	mu     sync.Mutex
	points []SplitPoint
}

// OnSplit implements Observer.
func (t *Trace) OnSplit(p SplitPoint) {
	t.mu.Lock()
	t.points = append(t.points, p)
	t.mu.Unlock()
}

// OnLeaf implements Observer.
func (t *Trace) OnLeaf(Range, int) {}

// Points returns the recorded split points ordered by start index, then by
// depth, so traces of separate runs can be compared directly.
func (t *Trace) Points() []SplitPoint {
	t.mu.Lock()
	points := slices.Clone(t.points)
	t.mu.Unlock()
	slices.SortFunc(points, func(a, b SplitPoint) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.Depth - b.Depth
	})
	return points
}

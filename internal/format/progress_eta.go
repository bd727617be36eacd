package format

import (
	"time"
)

// ProgressState tracks the completed fraction of several concurrently
// running strategies.
type ProgressState struct {
	progresses []float64
}

// NewProgressState creates a state for n strategies.
func NewProgressState(n int) *ProgressState {
	return &ProgressState{progresses: make([]float64, n)}
}

// Update records the progress of strategy index. Out-of-range indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage returns the mean progress over all strategies.
func (ps *ProgressState) CalculateAverage() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(len(ps.progresses))
}

// ProgressWithETA extends ProgressState with a remaining-time estimate
// derived from the average rate observed since creation.
type ProgressWithETA struct {
	*ProgressState
	startTime time.Time
	now       func() time.Time
}

// NewProgressWithETA creates a tracker for n strategies, starting the clock now.
func NewProgressWithETA(n int) *ProgressWithETA {
	return &ProgressWithETA{
		ProgressState: NewProgressState(n),
		startTime:     time.Now(),
		now:           time.Now,
	}
}

// UpdateWithETA records an update and returns the new average and ETA.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.Update(index, value)
	return p.CalculateAverage(), p.GetETA()
}

// GetETA returns the estimated remaining time, or 0 when no estimate is
// possible yet (nothing done) or the work is complete.
func (p *ProgressWithETA) GetETA() time.Duration {
	avg := p.CalculateAverage()
	if avg <= 0 || avg >= 1 {
		return 0
	}
	elapsed := p.now().Sub(p.startTime)
	total := time.Duration(float64(elapsed) / avg)
	return total - elapsed
}

// FormatETA renders an ETA for display, "calculating..." when unknown.
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}
	return eta.Round(time.Second).String()
}

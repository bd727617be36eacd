// Package progress defines the progress update type exchanged between the
// strategies being run and whatever displays their advancement.
package progress

// ProgressUpdate reports the advancement of one strategy.
type ProgressUpdate struct {
	// CalculatorIndex identifies the strategy in the list being executed.
	CalculatorIndex int
	// Value is the completed fraction, from 0.0 to 1.0.
	Value float64
}

// ProgressCallback receives the completed fraction of a single strategy.
type ProgressCallback func(value float64)

// ChannelCallback returns a callback that forwards values to ch, tagged with
// index. Sends never block: an update is dropped when the channel is full,
// since a later one supersedes it anyway. Final values (1.0) are always
// delivered.
func ChannelCallback(ch chan<- ProgressUpdate, index int) ProgressCallback {
	if ch == nil {
		return func(float64) {}
	}
	return func(value float64) {
		update := ProgressUpdate{CalculatorIndex: index, Value: clamp(value)}
		if update.Value >= 1.0 {
			ch <- update
			return
		}
		select {
		case ch <- update:
		default:
		}
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

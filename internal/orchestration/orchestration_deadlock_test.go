package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/agbru/forkjoin/internal/progress"
	"github.com/agbru/forkjoin/internal/reduce"
)

// behaviorStrategy simulates various strategy behaviors for deadlock testing.
type behaviorStrategy struct {
	name     string
	behavior string // "instant", "slow", "error", "leaf_flood"
	delay    time.Duration
}

func (m *behaviorStrategy) Reduce(ctx context.Context, data []int64, opts StrategyOptions) (int64, reduce.Stats, error) {
	switch m.behavior {
	case "slow":
		for i := range 100 {
			select {
			case <-ctx.Done():
				return 0, reduce.Stats{}, ctx.Err()
			default:
			}
			opts.Observer.OnLeaf(reduce.Range{Start: i, End: i + 1}, 1)
			time.Sleep(m.delay)
		}
	case "error":
		return 0, reduce.Stats{}, fmt.Errorf("simulated error")
	case "leaf_flood":
		// Far more leaves than expected: progress must stay bounded.
		for i := range 10000 {
			opts.Observer.OnLeaf(reduce.Range{Start: i, End: i + 1}, 1)
		}
	}
	return 1, reduce.Stats{Leaves: 1}, nil
}

func (m *behaviorStrategy) Name() string { return m.name }

// slowProgressReporter drains the channel, pausing on each update.
type slowProgressReporter struct{}

func (slowProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	for range progressChan {
		time.Sleep(100 * time.Microsecond)
	}
}

// TestOrchestrationNoDeadlock_MixedBehaviors verifies that ExecuteStrategies
// completes without deadlocking under various strategy behavior combinations.
func TestOrchestrationNoDeadlock_MixedBehaviors(t *testing.T) {
	testCases := []struct {
		name       string
		strategies []Strategy
	}{
		{
			name: "all_instant",
			strategies: []Strategy{
				&behaviorStrategy{name: "s1", behavior: "instant"},
				&behaviorStrategy{name: "s2", behavior: "instant"},
				&behaviorStrategy{name: "s3", behavior: "instant"},
			},
		},
		{
			name: "mixed_instant_and_slow",
			strategies: []Strategy{
				&behaviorStrategy{name: "fast", behavior: "instant"},
				&behaviorStrategy{name: "slow", behavior: "slow", delay: time.Millisecond},
			},
		},
		{
			name: "mixed_with_errors",
			strategies: []Strategy{
				&behaviorStrategy{name: "ok", behavior: "instant"},
				&behaviorStrategy{name: "err", behavior: "error"},
			},
		},
		{
			name: "leaf_flood",
			strategies: []Strategy{
				&behaviorStrategy{name: "flood1", behavior: "leaf_flood"},
				&behaviorStrategy{name: "flood2", behavior: "leaf_flood"},
			},
		},
		{
			name: "single_strategy",
			strategies: []Strategy{
				&behaviorStrategy{name: "solo", behavior: "instant"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			opts := testOptions()
			opts.Runs = 3
			opts.Concurrency = 2

			done := make(chan struct{})
			go func() {
				defer close(done)
				ExecuteStrategies(ctx, tc.strategies, testData, opts, slowProgressReporter{}, io.Discard)
			}()

			select {
			case <-done:
				// Success - no deadlock
			case <-time.After(10 * time.Second):
				t.Fatal("DEADLOCK: ExecuteStrategies did not complete within timeout")
			}
		})
	}
}

// TestOrchestrationNoDeadlock_ContextCancellation verifies that cancelling
// the context during execution does not cause a deadlock.
func TestOrchestrationNoDeadlock_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	strategies := []Strategy{
		&behaviorStrategy{name: "slow1", behavior: "slow", delay: 100 * time.Millisecond},
		&behaviorStrategy{name: "slow2", behavior: "slow", delay: 100 * time.Millisecond},
	}

	done := make(chan []CalculationResult)
	go func() {
		done <- ExecuteStrategies(ctx, strategies, testData, testOptions(), NullProgressReporter{}, io.Discard)
	}()

	// Cancel after a short delay
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case results := <-done:
		for _, r := range results {
			if r.Err == nil {
				t.Errorf("%s: expected a cancellation error", r.Name)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("DEADLOCK after context cancellation")
	}
}

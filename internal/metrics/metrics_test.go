package metrics

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/forkjoin/internal/parallel"
	"github.com/agbru/forkjoin/internal/reduce"
	"github.com/agbru/forkjoin/internal/sysmon"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
	if m.handler == nil {
		t.Error("Metrics.handler should be initialized")
	}
	// Independent registries must not collide.
	_ = NewMetrics()
}

func TestMetrics_ObserveReduction(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.ObserveReduction("pool", 3*time.Millisecond, nil)
	m.ObserveReduction("pool", 5*time.Millisecond, nil)
	m.ObserveReduction("pool", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(m.reductions.WithLabelValues("pool", ResultSuccess)); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reductions.WithLabelValues("pool", ResultError)); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestMetrics_ActiveReductions(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.IncrementActiveReductions()
	m.IncrementActiveReductions()
	m.DecrementActiveReductions()
	if got := testutil.ToFloat64(m.activeReductions); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
}

func TestMetrics_RecordSystem(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.RecordSystem(sysmon.Stats{CPUPercent: 75, PerCPU: []float64{90, 80, 10, 70}, MemPercent: 40})
	if got := testutil.ToFloat64(m.systemCPU); got != 75 {
		t.Errorf("system cpu = %v, want 75", got)
	}
	if got := testutil.ToFloat64(m.busyCores); got != 3 {
		t.Errorf("busy cores = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.systemMemory); got != 40 {
		t.Errorf("system memory = %v, want 40", got)
	}
}

// TestMetrics_Observer verifies that the tree observer counts what the
// reducer reports.
func TestMetrics_Observer(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	seq := []int64{3, 1, 4, 1, 5, 9, 2, 6}
	var counter reduce.Counter
	opts := reduce.Options{
		Threshold: 2,
		Executor:  parallel.NewPool(2),
		Observer:  reduce.Observers(m.Observer("pool"), &counter),
	}
	if _, err := reduce.ReduceRange(context.Background(), seq, reduce.Range{End: len(seq)}, opts, reduce.Max[int64]()); err != nil {
		t.Fatal(err)
	}

	stats := counter.Stats()
	if got := testutil.ToFloat64(m.splits.WithLabelValues("pool")); got != float64(stats.Splits) {
		t.Errorf("splits = %v, want %d", got, stats.Splits)
	}
	if got := testutil.ToFloat64(m.leaves.WithLabelValues("pool")); got != float64(stats.Leaves) {
		t.Errorf("leaves = %v, want %d", got, stats.Leaves)
	}
}

func TestMetrics_WritePrometheus(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.ObserveReduction("sequential", time.Millisecond, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	m.WritePrometheus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"forkjoin_reductions_total", "forkjoin_reduction_duration_seconds", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %s", want)
		}
	}
}

func TestMetrics_WriteText(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.ObserveReduction("pool", time.Millisecond, nil)
	m.RecordMemory(MemorySnapshot{HeapAlloc: 4096})
	m.Observer("pool").OnLeaf(reduce.Range{Start: 0, End: 10}, 1)

	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`forkjoin_reductions_total{result="success",strategy="pool"} 1`,
		"forkjoin_heap_alloc_bytes 4096",
		`forkjoin_leaves_total{strategy="pool"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "go_goroutines") {
		t.Error("runtime collectors should be excluded from the text dump")
	}
}

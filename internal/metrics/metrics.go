package metrics

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/agbru/forkjoin/internal/reduce"
	"github.com/agbru/forkjoin/internal/sysmon"
)

const namespace = "forkjoin"

// Result label values of forkjoin_reductions_total.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the Prometheus collectors of the application.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	reductions       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	splits           *prometheus.CounterVec
	leaves           *prometheus.CounterVec
	leafSize         *prometheus.HistogramVec
	activeReductions prometheus.Gauge
	heapAlloc        prometheus.Gauge
	systemCPU        prometheus.Gauge
	busyCores        prometheus.Gauge
	systemMemory     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		reductions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reductions_total",
			Help:      "Completed reductions by strategy and result.",
		}, []string{"strategy", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reduction_duration_seconds",
			Help:      "Wall-clock duration of reductions.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"strategy"}),
		splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Ranges split into two halves.",
		}, []string{"strategy"}),
		leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaves_total",
			Help:      "Ranges folded sequentially.",
		}, []string{"strategy"}),
		leafSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leaf_elements",
			Help:      "Number of elements folded by each leaf task.",
			Buckets:   prometheus.ExponentialBuckets(1, 8, 9),
		}, []string{"strategy"}),
		activeReductions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_reductions",
			Help:      "Reductions currently running.",
		}),
		heapAlloc: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heap_alloc_bytes",
			Help:      "Heap bytes in use at the last recorded snapshot.",
		}),
		systemCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_cpu_percent",
			Help:      "System-wide CPU utilization over the last run.",
		}),
		busyCores: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_busy_cores",
			Help:      "Logical cores more than half busy over the last run.",
		}),
		systemMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_memory_percent",
			Help:      "System-wide memory usage at the end of the last run.",
		}),
	}
	reg.MustRegister(
		m.reductions, m.duration, m.splits, m.leaves, m.leafSize,
		m.activeReductions, m.heapAlloc, m.systemCPU, m.busyCores, m.systemMemory,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// IncrementActiveReductions increments the running reductions gauge.
func (m *Metrics) IncrementActiveReductions() { m.activeReductions.Inc() }

// DecrementActiveReductions decrements the running reductions gauge.
func (m *Metrics) DecrementActiveReductions() { m.activeReductions.Dec() }

// ObserveReduction records the outcome and duration of one reduction.
func (m *Metrics) ObserveReduction(strategy string, d time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.reductions.WithLabelValues(strategy, result).Inc()
	m.duration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordMemory publishes a memory snapshot.
func (m *Metrics) RecordMemory(s MemorySnapshot) {
	m.heapAlloc.Set(float64(s.HeapAlloc))
}

// RecordSystem publishes system-wide utilization sampled around a run.
func (m *Metrics) RecordSystem(s sysmon.Stats) {
	m.systemCPU.Set(s.CPUPercent)
	m.busyCores.Set(float64(s.BusyCores(sysmon.BusyCoreThreshold)))
	m.systemMemory.Set(s.MemPercent)
}

// Observer returns a reduce.Observer that feeds the split and leaf collectors
// under the given strategy label.
func (m *Metrics) Observer(strategy string) reduce.Observer {
	return &treeObserver{
		splits:   m.splits.WithLabelValues(strategy),
		leaves:   m.leaves.WithLabelValues(strategy),
		leafSize: m.leafSize.WithLabelValues(strategy),
	}
}

type treeObserver struct {
	splits   prometheus.Counter
	leaves   prometheus.Counter
	leafSize prometheus.Observer
}

func (o *treeObserver) OnSplit(reduce.SplitPoint) { o.splits.Inc() }

func (o *treeObserver) OnLeaf(r reduce.Range, _ int) {
	o.leaves.Inc()
	o.leafSize.Observe(float64(r.Len()))
}

// WritePrometheus serves the registry in the Prometheus exposition format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// WriteText writes the forkjoin_* metric families in the text exposition
// format. Runtime collectors are left out to keep the CLI dump short.
func (m *Metrics) WriteText(out io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(out, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

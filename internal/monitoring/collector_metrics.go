package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectorMetrics exposes the collector's own health to Prometheus.
// A nil *CollectorMetrics is valid and records nothing.
type CollectorMetrics struct {
	collections   prometheus.Counter
	duration      prometheus.Histogram
	groupFailures *prometheus.CounterVec
	cpuLoad       prometheus.Gauge
	usedRAM       prometheus.Gauge
}

// NewCollectorMetrics creates the collectors and registers them on reg.
func NewCollectorMetrics(reg prometheus.Registerer) *CollectorMetrics {
	m := &CollectorMetrics{
		collections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mymonitor",
			Name:      "collections_total",
			Help:      "Number of completed collection passes.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mymonitor",
			Name:      "collection_duration_seconds",
			Help:      "Wall time of one collection pass, fetch and build.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		}),
		groupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mymonitor",
			Name:      "group_failures_total",
			Help:      "Raw metric groups that failed and were replaced by defaults.",
		}, []string{"group"}),
		cpuLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mymonitor",
			Name:      "snapshot_cpu_load_percent",
			Help:      "CPU load from the latest snapshot.",
		}),
		usedRAM: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mymonitor",
			Name:      "snapshot_used_ram_percent",
			Help:      "Used RAM percentage from the latest snapshot.",
		}),
	}
	reg.MustRegister(m.collections, m.duration, m.groupFailures, m.cpuLoad, m.usedRAM)
	return m
}

func (m *CollectorMetrics) observe(snap Snapshot, failed []GroupName, took time.Duration) {
	if m == nil {
		return
	}
	m.collections.Inc()
	m.duration.Observe(took.Seconds())
	for _, g := range failed {
		m.groupFailures.WithLabelValues(string(g)).Inc()
	}
	if snap.CPULoadPercent != nil {
		m.cpuLoad.Set(*snap.CPULoadPercent)
	}
	if snap.UsedRAMPercent != nil {
		m.usedRAM.Set(*snap.UsedRAMPercent)
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fxsync"

// SyncMetrics holds the counters and histograms exported by the sync pipeline
type SyncMetrics struct {
	CyclesTotal         *prometheus.CounterVec
	ObservationsWritten prometheus.Counter
	ObservationFailures prometheus.Counter
	FallbackTotal       prometheus.Counter
	CycleDuration       prometheus.Histogram
	SweepsTotal         *prometheus.CounterVec
	SweepDeletedTotal   prometheus.Counter
}

// NewSyncMetrics registers the pipeline metrics with reg. A nil reg uses the default registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &SyncMetrics{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Sync cycles by outcome and the source that served them",
			},
			[]string{"status", "source"},
		),
		ObservationsWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observations_written_total",
				Help:      "Rate observations upserted into the store",
			},
		),
		ObservationFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observation_failures_total",
				Help:      "Rate observations that could not be persisted",
			},
		),
		FallbackTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_total",
				Help:      "Cycles that fell back to the secondary provider",
			},
		),
		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Wall time of a sync cycle",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		SweepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeps_total",
				Help:      "Retention sweeps by outcome",
			},
			[]string{"status"},
		),
		SweepDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_deleted_total",
				Help:      "Rate observations removed by retention sweeps",
			},
		),
	}
}

// ObserveCycle records the outcome of one sync cycle
func (m *SyncMetrics) ObserveCycle(status, source string, written, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(status, source).Inc()
	m.ObservationsWritten.Add(float64(written))
	m.ObservationFailures.Add(float64(failed))
	m.CycleDuration.Observe(elapsed.Seconds())
	if source == "fallback" {
		m.FallbackTotal.Inc()
	}
}

// ObserveSweep records the outcome of one retention sweep
func (m *SyncMetrics) ObserveSweep(status string, deleted int) {
	if m == nil {
		return
	}
	m.SweepsTotal.WithLabelValues(status).Inc()
	m.SweepDeletedTotal.Add(float64(deleted))
}

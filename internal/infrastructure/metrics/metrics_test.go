package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveCycle("completed", "primary", 3, 0, 200*time.Millisecond)
	m.ObserveCycle("partial", "fallback", 2, 1, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("completed", "primary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("partial", "fallback")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ObservationsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObservationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDuration))
}

func TestObserveSweep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveSweep("completed", 7)
	m.ObserveSweep("failed", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepsTotal.WithLabelValues("failed")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.SweepDeletedTotal))
}

func TestMetricsRegisteredUnderNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)
	m.ObserveCycle("completed", "primary", 1, 0, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["fxsync_cycles_total"])
	assert.True(t, names["fxsync_cycle_duration_seconds"])
	assert.True(t, names["fxsync_observations_written_total"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *SyncMetrics
	assert.NotPanics(t, func() {
		m.ObserveCycle("completed", "primary", 1, 0, time.Millisecond)
		m.ObserveSweep("completed", 1)
	})
}

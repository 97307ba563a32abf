package service

import (
	"context"
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/office-admin/internal/querycache"
)

func TestMetricsServiceRegistersSnapshotWrites(t *testing.T) {
	m := NewMetricsService()
	m.ObserveCacheWrite(20 * time.Millisecond)
	m.ObserveCacheWrite(40 * time.Millisecond)

	family := gather(t, m, "snapshot_store_write_seconds")
	require.NotNil(t, family)
	require.Len(t, family.GetMetric(), 1)
	assert.EqualValues(t, 2, family.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation("staffs", true)
	m.RecordCacheOperation("staffs", false)
	m.RecordCacheOperation("tasks", true)
	m.RecordDanglingReference("mails")
	m.SetActiveSessions(3)
	m.ObserveMutation(context.Background(), querycache.MutationEvent{Name: "tasks", Action: "CREATE"})
	m.ObserveMutation(context.Background(), querycache.MutationEvent{Name: "tasks", Action: "CREATE", Err: errors.New("boom")})

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.EqualValues(t, 1, snap.DanglingReferences)
	assert.Equal(t, 3, snap.ActiveSessions)

	family := gather(t, m, "mutations_total")
	require.NotNil(t, family)
	assert.Len(t, family.GetMetric(), 2)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveCacheWrite(time.Second)
		m.RecordCacheOperation("staffs", true)
		m.SetActiveSessions(1)
	})
	assert.Equal(t, 0, m.Snapshot().ActiveSessions)
}

func gather(t *testing.T, m *MetricsService, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

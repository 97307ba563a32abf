package service

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	cacheHitRatio    prometheus.Gauge
	cacheWrite       prometheus.Histogram
	mutations        *prometheus.CounterVec
	dangling         *prometheus.CounterVec
	auditWrite       *prometheus.HistogramVec

	activeSessions atomic.Int64

	cacheHitCount         uint64
	cacheMissCount        uint64
	requestCount          uint64
	requestDurationTotal  uint64
	upstreamCount         uint64
	upstreamDurationTotal uint64
	danglingCount         uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	m := &MetricsService{registry: registry}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of console HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of console HTTP requests",
	}, []string{"method", "path", "status"})

	m.upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of calls to the remote REST API",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "collection", "status"})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "query_cache_lookups_total",
		Help: "Query cache reads by outcome",
	}, []string{"key", "result"})

	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "query_cache_hit_ratio",
		Help: "Ratio of fresh cache hits to total cache reads",
	})

	m.cacheWrite = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_store_write_seconds",
		Help:    "Latency of shared snapshot store writes",
		Buckets: prometheus.DefBuckets,
	})

	m.mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mutations_total",
		Help: "Create, update and delete requests by outcome",
	}, []string{"collection", "action", "outcome"})

	m.dangling = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dangling_references_total",
		Help: "Foreign keys rendered as Unknown because the referenced record was not cached",
	}, []string{"collection"})

	m.auditWrite = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audit_write_duration_seconds",
		Help:    "Duration of audit trail inserts",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	sessions := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "console_sessions_active",
		Help: "Signed-in browser sessions held by this replica",
	}, func() float64 {
		return float64(m.activeSessions.Load())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.upstreamDuration, m.cacheLookups,
		m.cacheHitRatio, m.cacheWrite, m.mutations, m.dangling, m.auditWrite, goroutines, sessions)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveUpstream records one call to the remote API. status is 0 when the
// request never got a response.
func (m *MetricsService) ObserveUpstream(method, collection string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(method, collection, strconv.Itoa(status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.upstreamCount, 1)
	atomic.AddUint64(&m.upstreamDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a query cache read. A stale read counts as a miss.
func (m *MetricsService) RecordCacheOperation(key string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	m.cacheLookups.WithLabelValues(key, result).Inc()

	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for snapshot store writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordMutation counts a settled mutation.
func (m *MetricsService) RecordMutation(collection, action string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.mutations.WithLabelValues(collection, action, outcome).Inc()
}

// ObserveMutation implements querycache.MutationObserver.
func (m *MetricsService) ObserveMutation(_ context.Context, ev querycache.MutationEvent) {
	m.RecordMutation(ev.Name, ev.Action, ev.Err == nil)
}

// RecordDanglingReference counts a foreign key that rendered as Unknown.
func (m *MetricsService) RecordDanglingReference(collection string) {
	if m == nil {
		return
	}
	m.dangling.WithLabelValues(collection).Inc()
	atomic.AddUint64(&m.danglingCount, 1)
}

// ObserveAuditWrite records how long an audit insert took.
func (m *MetricsService) ObserveAuditWrite(ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.auditWrite.WithLabelValues(outcome).Observe(duration.Seconds())
}

// SetActiveSessions publishes the number of live browser sessions.
func (m *MetricsService) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Store(int64(n))
}

// Snapshot returns aggregated metrics suitable for the dashboard.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	upstream := atomic.LoadUint64(&m.upstreamCount)
	upDuration := atomic.LoadUint64(&m.upstreamDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	return models.SystemMetrics{
		CacheHitRatio:             cacheRatio,
		CacheHits:                 hits,
		CacheMisses:               misses,
		RequestsTotal:             requests,
		AverageRequestDurationMs:  average(reqDuration, requests),
		UpstreamCalls:             upstream,
		AverageUpstreamDurationMs: average(upDuration, upstream),
		DanglingReferences:        atomic.LoadUint64(&m.danglingCount),
		ActiveSessions:            int(m.activeSessions.Load()),
		GeneratedAt:               time.Now().UTC(),
	}
}

func average(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}

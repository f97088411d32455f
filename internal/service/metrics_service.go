package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sipal-api/internal/models"
)

// MetricsService owns the Prometheus registry and the SIPAL collectors.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	identitySearch  *prometheus.CounterVec
	attachments     *prometheus.CounterVec
	exports         *prometheus.CounterVec
	cascadeDeletes  *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	identitySearch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sipal_identity_searches_total",
		Help: "Identity validation searches by outcome",
	}, []string{"outcome"})

	attachments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sipal_attachments_total",
		Help: "Attachment uploads by result",
	}, []string{"result"})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sipal_exports_total",
		Help: "Alumni exports by format and status",
	}, []string{"format", "status"})

	cascadeDeletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sipal_cascade_deleted_records_total",
		Help: "Dependent records removed by master deletes",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		identitySearch, attachments, exports, cascadeDeletes, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		identitySearch:  identitySearch,
		attachments:     attachments,
		exports:         exports,
		cascadeDeletes:  cascadeDeletes,
	}
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

// Registry exposes the registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordIdentitySearch counts identity searches by outcome.
func (m *MetricsService) RecordIdentitySearch(outcome models.IdentityOutcome) {
	if m == nil {
		return
	}
	m.identitySearch.WithLabelValues(string(outcome)).Inc()
}

// RecordAttachments counts accepted and rejected uploads.
func (m *MetricsService) RecordAttachments(accepted, rejected int) {
	if m == nil {
		return
	}
	m.attachments.WithLabelValues("accepted").Add(float64(accepted))
	m.attachments.WithLabelValues("rejected").Add(float64(rejected))
}

// RecordExport counts exports by format and terminal status.
func (m *MetricsService) RecordExport(format models.ExportFormat, status models.ExportStatus) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(string(format), string(status)).Inc()
}

// RecordCascade counts dependents removed with a master record.
func (m *MetricsService) RecordCascade(result models.CascadeResult) {
	if m == nil {
		return
	}
	m.cascadeDeletes.WithLabelValues("career").Add(float64(result.Careers))
	m.cascadeDeletes.WithLabelValues("achievement").Add(float64(result.Achievements))
}

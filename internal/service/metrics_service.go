package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
// It doubles as the listsync.Observer of every screen controller.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchTotal      *prometheus.CounterVec
	staleTotal      *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	gateRejections  *prometheus.CounterVec
	liveCountValue  prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	fetchCount           uint64
	fetchFailures        uint64
	staleCount           uint64
	sessionCount         int64
	gateRejectCount      uint64
}

var _ listsync.Observer = (*MetricsService)(nil)

// NewMetricsService registers core Prometheus collectors.
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

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_remote_fetch_duration_seconds",
		Help:    "Duration of remote list fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "operation"})

	fetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_remote_fetch_total",
		Help: "Remote list fetches by outcome",
	}, []string{"resource", "operation", "outcome"})

	staleTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_stale_responses_total",
		Help: "Responses discarded because a newer intent superseded them",
	}, []string{"resource", "operation"})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_active_sessions",
		Help: "Open dashboard sessions",
	})

	gateRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_gate_rejections_total",
		Help: "Requests rejected by the access gate",
	}, []string{"reason"})

	liveCountValue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_live_user_count",
		Help: "Last live user count received",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, fetchDuration, fetchTotal, staleTotal, activeSessions, gateRejections, liveCountValue, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		fetchDuration:   fetchDuration,
		fetchTotal:      fetchTotal,
		staleTotal:      staleTotal,
		activeSessions:  activeSessions,
		gateRejections:  gateRejections,
		liveCountValue:  liveCountValue,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveFetch records a remote list fetch.
func (m *MetricsService) ObserveFetch(resource string, op listsync.Operation, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		atomic.AddUint64(&m.fetchFailures, 1)
	}
	m.fetchDuration.WithLabelValues(resource, string(op)).Observe(duration.Seconds())
	m.fetchTotal.WithLabelValues(resource, string(op), outcome).Inc()
	atomic.AddUint64(&m.fetchCount, 1)
}

// ObserveStale counts a discarded out-of-order response.
func (m *MetricsService) ObserveStale(resource string, op listsync.Operation) {
	if m == nil {
		return
	}
	m.staleTotal.WithLabelValues(resource, string(op)).Inc()
	atomic.AddUint64(&m.staleCount, 1)
}

// SessionOpened and SessionClosed track the active session gauge.
func (m *MetricsService) SessionOpened() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.sessionCount, 1)
	m.activeSessions.Inc()
}

func (m *MetricsService) SessionClosed() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.sessionCount, -1)
	m.activeSessions.Dec()
}

// ObserveGateRejection counts a request refused by the access gate.
func (m *MetricsService) ObserveGateRejection(reason string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(reason).Inc()
	atomic.AddUint64(&m.gateRejectCount, 1)
}

// ObserveLiveCount exposes the latest live count. A nil count resets the gauge.
func (m *MetricsService) ObserveLiveCount(count *int) {
	if m == nil {
		return
	}
	if count == nil {
		m.liveCountValue.Set(0)
		return
	}
	m.liveCountValue.Set(float64(*count))
}

// Snapshot returns aggregated metrics suitable for the health endpoint.
func (m *MetricsService) Snapshot() models.GatewayMetrics {
	if m == nil {
		return models.GatewayMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.GatewayMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		RemoteFetches:            atomic.LoadUint64(&m.fetchCount),
		RemoteFailures:           atomic.LoadUint64(&m.fetchFailures),
		StaleResponses:           atomic.LoadUint64(&m.staleCount),
		ActiveSessions:           atomic.LoadInt64(&m.sessionCount),
		GateRejections:           atomic.LoadUint64(&m.gateRejectCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	adminRequestsTotal    *prometheus.CounterVec
	adminLatencySeconds   *prometheus.HistogramVec
	adminErrorsTotal      *prometheus.CounterVec
	realtimeConnections   prometheus.Counter
	adminRealtimeSessions prometheus.Gauge
	statsPublishTotal     *prometheus.CounterVec
	statsComputeSeconds   prometheus.Histogram
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		realtimeConnections = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_connections_total",
			Help: "Total number of websocket connections accepted.",
		})

		adminRealtimeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "admin_realtime_sessions",
			Help: "Connections currently joined to the admin room.",
		})

		statsPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_publish_total",
			Help: "Stats snapshot publications by trigger and outcome.",
		}, []string{"source", "result"})

		statsComputeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_compute_seconds",
			Help:    "Time spent computing the aggregate stats snapshot.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Spreadsheet uploads rejected by validation.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_latency_seconds",
			Help:    "Time spent validating, parsing and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			realtimeConnections,
			adminRealtimeSessions,
			statsPublishTotal,
			statsComputeSeconds,
			uploadRejectedTotal,
			uploadLatencySeconds,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// RealtimeConnectionsTotal counts accepted websocket connections.
func RealtimeConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return realtimeConnections
}

// AdminRealtimeSessions tracks admin room membership.
func AdminRealtimeSessions() prometheus.Gauge {
	RegisterMetrics()
	return adminRealtimeSessions
}

// StatsPublishTotal counts stats publications.
func StatsPublishTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return statsPublishTotal
}

// StatsComputeSeconds observes snapshot computation latency.
func StatsComputeSeconds() prometheus.Histogram {
	RegisterMetrics()
	return statsComputeSeconds
}

// UploadRejected counts rejected uploads by reason.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload handling latency.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// MetricsHandler serves the default registry in text or OpenMetrics format.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}

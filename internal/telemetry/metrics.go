package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one process. Each instance
// owns its registry, so several can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	// SDK client metrics
	clientRequestsTotal   *prometheus.CounterVec
	clientRequestDuration *prometheus.HistogramVec
	clientRetriesTotal    *prometheus.CounterVec
	cacheHits             *prometheus.CounterVec
	cacheMisses           *prometheus.CounterVec

	// Sandbox server metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	tasksCreated        prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		clientRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rush_client_requests_total",
			Help: "Total number of Rush Analytics API requests",
		}, []string{"method", "endpoint", "status"}),

		clientRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rush_client_request_duration_seconds",
			Help:    "Duration of Rush Analytics API requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),

		clientRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rush_client_retries_total",
			Help: "Total number of scheduled retries",
		}, []string{"operation"}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rush_client_cache_hits_total",
			Help: "Total number of response cache hits",
		}, []string{"endpoint"}),

		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rush_client_cache_misses_total",
			Help: "Total number of response cache misses",
		}, []string{"endpoint"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),

		tasksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandbox_tasks_created_total",
			Help: "Total number of tasks created in the sandbox",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a request served by the sandbox
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTaskCreated counts a sandbox task
func (m *Metrics) RecordTaskCreated() {
	m.tasksCreated.Inc()
}

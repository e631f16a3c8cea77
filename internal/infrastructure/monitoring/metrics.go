// Package monitoring wires prometheus collectors and OpenTelemetry providers
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection for one process
type MetricsCollector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge
	errorsTotal         *prometheus.CounterVec
	buildInfo           *prometheus.GaugeVec
}

// NewMetricsCollector creates a registry with the Go and process collectors
// and the HTTP metrics of the named service
func NewMetricsCollector(service, version string, logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry))

	m := &MetricsCollector{
		registry: registry,
		logger:   logger.Named("metrics"),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path", "status_code"},
		),
		httpInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests being served",
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of HTTP error responses",
			},
			[]string{"error_type"},
		),
		buildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "medihort_build_info",
				Help: "Build information of the running binary",
			},
			[]string{"version"},
		),
	}
	m.buildInfo.WithLabelValues(version).Set(1)

	return m
}

// Registry returns the registry for components that add their own collectors
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP records one finished request. route is the matched pattern,
// never the raw path, to keep label cardinality bounded.
func (m *MetricsCollector) ObserveHTTP(method, route string, status int, duration time.Duration, size int) {
	if route == "" {
		route = "unmatched"
	}
	code := strconv.Itoa(status)

	m.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	if size >= 0 {
		m.httpResponseSize.WithLabelValues(method, route, code).Observe(float64(size))
	}

	switch {
	case status >= 500:
		m.errorsTotal.WithLabelValues("server_error").Inc()
	case status >= 400:
		m.errorsTotal.WithLabelValues("client_error").Inc()
	}
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement
func (m *MetricsCollector) TrackInFlight() func() {
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		done := m.TrackInFlight()
		defer done()

		c.Next()

		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), c.Writer.Size())
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry:          m.registry,
		EnableOpenMetrics: true,
		ErrorLog:          zap.NewStdLog(m.logger),
	})
}

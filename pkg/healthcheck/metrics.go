package healthcheck

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics provides Prometheus metrics for health checks.
// A nil *HealthMetrics records nothing.
type HealthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	checkStatus   *prometheus.GaugeVec
	healthStatus  prometheus.Gauge
}

// MetricsConfig holds configuration for metrics
type MetricsConfig struct {
	Namespace string
	Subsystem string
}

// DefaultMetricsConfig returns default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "medihort",
		Subsystem: "healthcheck",
	}
}

// NewHealthMetrics registers the health check collectors on reg
func NewHealthMetrics(reg prometheus.Registerer, config MetricsConfig) *HealthMetrics {
	factory := promauto.With(reg)

	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "check_duration_seconds",
				Help:      "Duration of individual health checks",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"check_name"},
		),
		checkStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "check_status",
				Help:      "Last status per check (1 healthy, 0.5 degraded, 0 unhealthy)",
			},
			[]string{"check_name"},
		),
		healthStatus: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "status",
				Help:      "Overall health status (1 healthy, 0.5 degraded, 0 unhealthy)",
			},
		),
	}
}

// RecordCheck records the outcome of a single check
func (hm *HealthMetrics) RecordCheck(check Check) {
	if hm == nil {
		return
	}
	hm.checksTotal.WithLabelValues(check.Name, string(check.Status)).Inc()
	hm.checkDuration.WithLabelValues(check.Name).Observe(check.Duration.Seconds())
	hm.checkStatus.WithLabelValues(check.Name).Set(statusToFloat(check.Status))
}

// UpdateHealthStatus sets the overall status gauge
func (hm *HealthMetrics) UpdateHealthStatus(status Status) {
	if hm == nil {
		return
	}
	hm.healthStatus.Set(statusToFloat(status))
}

func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 1.0
	case StatusDegraded:
		return 0.5
	default:
		return 0.0
	}
}

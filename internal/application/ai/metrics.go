package ai

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Request kinds
const (
	KindAnalysis     = "analysis"
	KindConsultation = "consultation"
)

// Request outcomes
const (
	outcomeSuccess  = "success"
	outcomeError    = "error"
	outcomeCacheHit = "cache_hit"
)

// Metrics records AI traffic per kind, provider and outcome
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fallbacksTotal  *prometheus.CounterVec

	replyLength metric.Int64Histogram
	latency     metric.Float64Histogram
}

// NewMetrics registers the AI collectors on reg. The otel instruments come from
// the global meter provider, which telemetry backs with the prometheus exporter.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medihort_ai_requests_total",
				Help: "Total number of AI requests",
			},
			[]string{"kind", "provider", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medihort_ai_request_duration_seconds",
				Help:    "AI request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"kind", "provider"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medihort_ai_fallbacks_total",
				Help: "Number of times a request moved on to the next provider",
			},
			[]string{"kind", "from"},
		),
	}

	meter := otel.Meter("github.com/medihort/medihort-ai/internal/application/ai")
	// Instrument creation only fails on invalid names; a nil instrument is skipped.
	m.replyLength, _ = meter.Int64Histogram("medihort.ai.reply.length",
		metric.WithDescription("Length of AI replies in characters"),
		metric.WithUnit("{char}"),
	)
	m.latency, _ = meter.Float64Histogram("medihort.ai.latency",
		metric.WithDescription("Latency of successful AI completions"),
		metric.WithUnit("s"),
	)

	return m
}

func (m *Metrics) observe(ctx context.Context, kind, provider, outcome string, elapsed time.Duration, reply string) {
	if m == nil {
		return
	}

	m.requestsTotal.WithLabelValues(kind, provider, outcome).Inc()
	if outcome == outcomeCacheHit {
		return
	}
	m.requestDuration.WithLabelValues(kind, provider).Observe(elapsed.Seconds())

	if outcome != outcomeSuccess {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("provider", provider),
	)
	if m.replyLength != nil {
		m.replyLength.Record(ctx, int64(len(reply)), attrs)
	}
	if m.latency != nil {
		m.latency.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func (m *Metrics) fallback(kind, from string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(kind, from).Inc()
}

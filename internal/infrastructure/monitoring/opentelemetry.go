package monitoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OpenTelemetryConfig holds OpenTelemetry configuration
type OpenTelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	TracingEnabled bool
	OTLPEndpoint   string
	OTLPInsecure   bool
	SamplingRate   float64
}

// OpenTelemetryProvider owns the process-wide tracer and meter providers
type OpenTelemetryProvider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	logger         *zap.Logger
	config         OpenTelemetryConfig
}

// NewOpenTelemetryProvider installs the global propagator, a meter provider
// exporting through reg and, when enabled, an OTLP/HTTP tracer provider
func NewOpenTelemetryProvider(ctx context.Context, config OpenTelemetryConfig, reg prometheus.Registerer, logger *zap.Logger) (*OpenTelemetryProvider, error) {
	provider := &OpenTelemetryProvider{
		logger: logger.Named("otel"),
		config: config,
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironmentName(config.Environment),
		),
		resource.WithProcessRuntimeName(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if err := provider.initializeMetrics(res, reg); err != nil {
		return nil, err
	}

	if config.TracingEnabled {
		if err := provider.initializeTracing(ctx, res); err != nil {
			_ = provider.meterProvider.Shutdown(ctx)
			return nil, err
		}
	}

	provider.logger.Info("OpenTelemetry provider initialized",
		zap.String("service", config.ServiceName),
		zap.String("version", config.ServiceVersion),
		zap.String("environment", config.Environment),
		zap.Bool("tracing_enabled", config.TracingEnabled),
	)

	return provider, nil
}

func (o *OpenTelemetryProvider) initializeTracing(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracehttp.Option{}
	if o.config.OTLPEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(o.config.OTLPEndpoint))
	}
	if o.config.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	rate := o.config.SamplingRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	o.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(o.tracerProvider)

	o.logger.Info("OTLP trace exporter configured",
		zap.String("endpoint", o.config.OTLPEndpoint),
		zap.Float64("sampling_rate", rate),
	)
	return nil
}

func (o *OpenTelemetryProvider) initializeMetrics(res *resource.Resource, reg prometheus.Registerer) error {
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(reg),
		otelprom.WithoutScopeInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	o.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(o.meterProvider)
	return nil
}

// Tracer returns a tracer from the active provider
func (o *OpenTelemetryProvider) Tracer(name string) trace.Tracer {
	return otel.Tracer(name, trace.WithInstrumentationVersion(o.config.ServiceVersion))
}

// TracingEnabled reports whether spans are exported
func (o *OpenTelemetryProvider) TracingEnabled() bool {
	return o.tracerProvider != nil
}

// Shutdown flushes and stops both providers
func (o *OpenTelemetryProvider) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

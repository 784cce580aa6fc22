// Package telemetry wires OpenTelemetry tracing and Prometheus metrics.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/infrastructure/config"
)

// ServiceVersion is reported as service.version on every span
const ServiceVersion = "1.0.0"

const flushTimeout = 10 * time.Second

// Tracing owns the process-wide tracer provider. When telemetry is disabled
// it holds no provider and every method is a no-op.
type Tracing struct {
	sdk *sdktrace.TracerProvider
	log *zap.Logger
}

// SetupTracing installs an OTLP/gRPC exporting provider and the W3C
// propagators as the otel globals. env becomes deployment.environment.name.
func SetupTracing(ctx context.Context, cfg config.TelemetryConfig, env string, log *zap.Logger) (*Tracing, error) {
	t := &Tracing{log: log}
	if !cfg.Enabled {
		log.Info("Tracing disabled")
		return t, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			semconv.DeploymentEnvironmentName(env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	t.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRatio)),
	)
	otel.SetTracerProvider(t.sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("Tracing enabled",
		zap.String("collector", cfg.CollectorEndpoint),
		zap.String("service", cfg.ServiceName),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return t, nil
}

// sampler keeps the parent's decision for remote spans and samples new
// traces by ratio
func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	root := sdktrace.AlwaysSample()
	if ratio < 1 {
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

// Enabled reports whether spans are exported
func (t *Tracing) Enabled() bool {
	return t.sdk != nil
}

// Tracer returns a named tracer, the global no-op one when disabled
func (t *Tracing) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if t.sdk == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.sdk.Tracer(name, opts...)
}

// Shutdown flushes buffered spans, waiting at most flushTimeout
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := t.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer shutdown: %w", err)
	}
	return nil
}

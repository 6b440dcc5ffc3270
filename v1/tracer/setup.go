package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/schema-registry-client/v1/logger"
)

// instrumentationName names the tracer used by StartSpan.
const instrumentationName = "github.com/Aleph-Alpha/schema-registry-client"

// Tracer owns the SDK tracer provider and exposes small helpers for starting
// spans and moving trace context across process boundaries.
type Tracer struct {
	provider   *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
	logger     logger.Logger
}

// NewClient builds a tracer provider from cfg and installs it, together with
// a W3C trace-context and baggage propagator, as the otel globals.
//
// log may be nil.
func NewClient(cfg Config, log logger.Logger) (*Tracer, error) {
	return newClientWithContext(context.Background(), cfg, log, nil)
}

// NewClientWithExporter is like NewClient but sends spans to exporter
// synchronously. It is meant for tests that assert on recorded spans.
func NewClientWithExporter(cfg Config, exporter sdktrace.SpanExporter) (*Tracer, error) {
	return newClientWithContext(context.Background(), cfg, nil, sdktrace.WithSyncer(exporter))
}

func newClientWithContext(ctx context.Context, cfg Config, log logger.Logger, extra sdktrace.TracerProviderOption) (*Tracer, error) {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("tracer: sample ratio %v is outside [0, 1]", cfg.SampleRatio)
	}

	var options []sdktrace.TracerProviderOption

	if cfg.EnableExport {
		var clientOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}

		exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(clientOpts...))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OTLP exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}
	if extra != nil {
		options = append(options, extra)
	}

	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		options = append(options, sdktrace.WithSampler(
			sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		))
	}

	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := sdktrace.NewTracerProvider(options...)
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator)

	if log != nil {
		log.Info("tracer initialized", nil, map[string]interface{}{
			"service":      cfg.ServiceName,
			"environment":  cfg.AppEnv,
			"export":       cfg.EnableExport,
			"sample_ratio": cfg.SampleRatio,
		})
	}

	return &Tracer{provider: tp, propagator: propagator, logger: log}, nil
}

// TracerProvider returns the provider so other components, such as the
// schema registry and the Kafka serializer, create their spans under it.
func (t *Tracer) TracerProvider() trace.TracerProvider {
	return t.provider
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

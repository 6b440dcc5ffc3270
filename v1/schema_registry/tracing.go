package schema_registry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"

// instrumentedAPI wraps every registry round-trip in a client span and counts it.
type instrumentedAPI struct {
	api     API
	tracer  trace.Tracer
	metrics *registryMetrics
}

func (a instrumentedAPI) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, "schema_registry.api."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

func (a instrumentedAPI) done(span trace.Span, operation string, err error) {
	a.metrics.fetch(operation, err)
	endSpan(span, err)
}

func (a instrumentedAPI) SchemaByID(ctx context.Context, id int) (s Schema, err error) {
	ctx, span := a.start(ctx, "SchemaByID", attribute.Int("schema_registry.id", id))
	defer func() { a.done(span, "schema_by_id", err) }()
	return a.api.SchemaByID(ctx, id)
}

func (a instrumentedAPI) SchemaByVersion(ctx context.Context, subject string, version int) (ss SubjectSchema, err error) {
	ctx, span := a.start(ctx, "SchemaByVersion",
		attribute.String("schema_registry.subject", subject),
		attribute.Int("schema_registry.version", version))
	defer func() { a.done(span, "schema_by_version", err) }()
	return a.api.SchemaByVersion(ctx, subject, version)
}

func (a instrumentedAPI) Compatibility(ctx context.Context, subject string) (level Compatibility, err error) {
	ctx, span := a.start(ctx, "Compatibility", attribute.String("schema_registry.subject", subject))
	defer func() { a.done(span, "compatibility", err) }()
	return a.api.Compatibility(ctx, subject)
}

func (a instrumentedAPI) SetCompatibility(ctx context.Context, subject string, level Compatibility) (err error) {
	ctx, span := a.start(ctx, "SetCompatibility",
		attribute.String("schema_registry.subject", subject),
		attribute.String("schema_registry.compatibility", string(level)))
	defer func() { a.done(span, "set_compatibility", err) }()
	return a.api.SetCompatibility(ctx, subject, level)
}

func (a instrumentedAPI) CreateSchema(ctx context.Context, subject string, schema Schema) (ss SubjectSchema, err error) {
	ctx, span := a.start(ctx, "CreateSchema",
		attribute.String("schema_registry.subject", subject),
		attribute.String("schema_registry.schema_type", string(schema.Type)))
	defer func() { a.done(span, "create_schema", err) }()
	return a.api.CreateSchema(ctx, subject, schema)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

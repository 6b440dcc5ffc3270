// Package tracer sets up OpenTelemetry tracing for services using the schema
// registry client.
//
// NewClient builds an SDK tracer provider tagged with the service name and
// deployment environment, optionally exporting spans over OTLP HTTP, and
// installs it with a W3C trace-context propagator as the otel globals.
//
// The Kafka serializer uses the same propagator to carry trace context in
// message headers, so a consumer's decode span joins the producer's trace.
// GetCarrier and SetCarrierOnContext do the same for any other transport:
//
//	headers := tr.GetCarrier(ctx)
//	// ... send headers with the message ...
//	ctx = tr.SetCarrierOnContext(context.Background(), headers)
//	ctx, span := tr.StartSpan(ctx, "orders.handle")
//	defer span.End()
package tracer

package observability

import "time"

// Observer lets external code watch operations performed by the schema registry
// packages (registry round-trips, cache lookups, encode/decode, Kafka publish/consume)
// without coupling them to a concrete metrics, tracing or logging backend.
//
// Observers are optional. Every package works without one.
type Observer interface {
	// ObserveOperation is called once an operation completes.
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a completed operation.
type OperationContext struct {
	// Component identifies the package that performed the operation.
	// Examples: "schema_registry", "kafka"
	Component string

	// Operation names what was done.
	// Examples: "register", "get_schema", "encode", "decode", "publish", "consume"
	Operation string

	// Resource is the primary resource: a subject name, "registry" for id lookups,
	// or a Kafka topic.
	Resource string

	// SubResource adds context to Resource, such as a registry id or version.
	SubResource string

	// Duration is how long the operation took.
	Duration time.Duration

	// Error is the error returned by the operation, nil on success.
	Error error

	// Size is the number of payload bytes involved, when meaningful.
	Size int64

	// Metadata carries operation specific details such as "cache_hit" or "schema_type".
	Metadata map[string]interface{}
}

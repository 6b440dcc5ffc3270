package logger

import "context"

// Logger is the structured logger handed to the schema registry and Kafka packages.
//
// Every method takes an optional error and any number of field maps. Later maps
// override keys of earlier ones. Logger satisfies schema_registry.Logger.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})

	// The *WithContext variants add trace_id and span_id of the span in ctx when
	// tracing is enabled.
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// With returns a logger that adds fields to every entry.
	With(fields map[string]interface{}) Logger
}

var _ Logger = (*LoggerClient)(nil)

package logger

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// convertToZapFields turns err and the field maps into zap fields. Maps are
// merged first so a key logged twice keeps the value of the last map. Keys are
// emitted in sorted order.
func convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			merged[key] = value
		}
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	zapFields := make([]zap.Field, 0, len(keys)+1)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	for _, key := range keys {
		zapFields = append(zapFields, zap.Any(key, merged[key]))
	}
	return zapFields
}

// tracingFields returns trace_id and span_id of the recording span in ctx.
func (l *LoggerClient) tracingFields(ctx context.Context) []zap.Field {
	if !l.tracingEnabled || ctx == nil {
		return nil
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return nil
	}
	sc := span.SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

func (l *LoggerClient) withTrace(ctx context.Context, err error, fields []map[string]interface{}) []zap.Field {
	return append(l.tracingFields(ctx), convertToZapFields(err, fields...)...)
}

// Info logs general progress, such as a registered schema or a started consumer.
//
// Example:
//
//	log.Info("registered schema", nil, map[string]interface{}{
//	    "subject": "orders-value",
//	    "id":      42,
//	})
func (l *LoggerClient) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, convertToZapFields(err, fields...)...)
}

// Debug logs detail that is only useful when diagnosing, such as cache misses.
func (l *LoggerClient) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, convertToZapFields(err, fields...)...)
}

// Warn logs a condition that did not fail the operation but needs attention.
func (l *LoggerClient) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, convertToZapFields(err, fields...)...)
}

// Error logs a failed operation.
//
// Example:
//
//	if err != nil {
//	    log.Error("failed to decode message", err, map[string]interface{}{
//	        "topic":     msg.Topic,
//	        "partition": msg.Partition,
//	    })
//	}
func (l *LoggerClient) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, convertToZapFields(err, fields...)...)
}

// Fatal logs and then calls os.Exit(1).
func (l *LoggerClient) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Fatal(msg, convertToZapFields(err, fields...)...)
}

// DebugWithContext is Debug with the trace of ctx attached.
func (l *LoggerClient) DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.withTrace(ctx, err, fields)...)
}

// InfoWithContext is Info with the trace of ctx attached.
func (l *LoggerClient) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.withTrace(ctx, err, fields)...)
}

// WarnWithContext is Warn with the trace of ctx attached.
func (l *LoggerClient) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.withTrace(ctx, err, fields)...)
}

// ErrorWithContext is Error with the trace of ctx attached.
func (l *LoggerClient) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.withTrace(ctx, err, fields)...)
}

// With returns a child logger adding fields to every entry.
func (l *LoggerClient) With(fields map[string]interface{}) Logger {
	return &LoggerClient{
		Zap:            l.Zap.With(convertToZapFields(nil, fields)...),
		tracingEnabled: l.tracingEnabled,
	}
}

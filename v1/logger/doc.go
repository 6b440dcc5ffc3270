// Package logger provides the zap based structured logger used by the schema
// registry client and the Kafka serializer.
//
// LoggerClient implements Logger, and Logger satisfies schema_registry.Logger,
// so one logger serves every package of this module.
//
// Direct usage:
//
//	import "github.com/Aleph-Alpha/schema-registry-client/v1/logger"
//
//	log, err := logger.NewLoggerClient(logger.Config{
//	    Level:         logger.Info,
//	    ServiceName:   "orders-consumer",
//	    EnableTracing: true,
//	})
//	if err != nil {
//	    panic(err)
//	}
//
//	registry, err := schema_registry.New(api, schema_registry.WithLogger(log))
//
//	// With tracing enabled, trace_id and span_id of the span in ctx are logged.
//	log.InfoWithContext(ctx, "decoded message", nil, map[string]interface{}{"id": 42})
//
// FX usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    schema_registry.FXModule,
//	    fx.Provide(
//	        func() logger.Config { return logger.Config{Level: logger.Debug} },
//	        func(l logger.Logger) schema_registry.Logger { return l },
//	    ),
//	)
//
// Configuration:
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning or error
//	LOGGER_SERVICE_NAME=orders      # "service" field, defaults to schema-registry-client
//	LOGGER_ENABLE_TRACING=true      # log trace and span ids in *WithContext methods
//	LOGGER_CALLER_SKIP=1            # wrapper frames skipped when reporting the caller
//
// All methods are safe for concurrent use.
package logger

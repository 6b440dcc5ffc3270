package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerClient wraps a zap.Logger behind the Logger interface.
type LoggerClient struct {
	// Zap is exposed for callers that need zap-specific functionality.
	Zap *zap.Logger

	tracingEnabled bool
}

// NewLoggerClient builds a JSON logger writing to stderr.
//
// Entries carry an ISO8601 "timestamp", the upper-case level, the full caller
// path, the process id and the service name. It fails only if zap cannot open
// stderr.
//
// Example:
//
//	log, err := logger.NewLoggerClient(logger.Config{Level: logger.Debug, ServiceName: "orders-consumer"})
//	if err != nil {
//	    panic(err)
//	}
//	log.Info("consumer started", nil, map[string]interface{}{"topic": "orders"})
func NewLoggerClient(cfg Config) (*LoggerClient, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.FullCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	service := cfg.ServiceName
	if service == "" {
		service = DefaultServiceName
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": service,
		},
	}

	callerSkip := cfg.CallerSkip
	if callerSkip <= 0 {
		callerSkip = 1
	}

	z, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(callerSkip))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	return NewFromZap(z, cfg.EnableTracing), nil
}

// NewFromZap wraps an existing zap logger, for example one built with zaptest.
func NewFromZap(z *zap.Logger, tracingEnabled bool) *LoggerClient {
	return &LoggerClient{Zap: z, tracingEnabled: tracingEnabled}
}

// ParseLevel maps a Config.Level value to a zap level. Unknown values map to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

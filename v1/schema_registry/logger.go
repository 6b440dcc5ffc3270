package schema_registry

// Logger defines the interface for logging operations in the schema_registry package.
// *logger.Logger from the v1/logger package satisfies it.
//
//go:generate mockgen -source=logger.go -destination=mock_logger.go -package=schema_registry
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// nopLogger discards everything. It stands in when no logger is configured.
type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

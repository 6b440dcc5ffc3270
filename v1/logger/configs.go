package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// DefaultServiceName is logged as "service" when Config.ServiceName is empty.
const DefaultServiceName = "schema-registry-client"

// Config configures the zap logger.
type Config struct {
	// Level is one of debug, info, warning or error. Anything else logs at info.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// ServiceName is attached to every entry as "service".
	ServiceName string `yaml:"service_name" envconfig:"LOGGER_SERVICE_NAME"`

	// EnableTracing makes the *WithContext methods log trace and span ids.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`

	// CallerSkip is the number of wrapper frames to skip when reporting the
	// caller. Defaults to 1, which points at the code calling LoggerClient.
	CallerSkip int `yaml:"caller_skip" envconfig:"LOGGER_CALLER_SKIP"`
}

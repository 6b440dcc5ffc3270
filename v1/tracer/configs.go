package tracer

// Config defines how the tracer identifies the service and where spans go.
type Config struct {
	// ServiceName is recorded as the service.name resource attribute.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv is recorded as deployment.environment, e.g. "staging" or "production".
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// EnableExport turns on the OTLP HTTP exporter. Without it spans are still
	// created and propagated but never leave the process.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`

	// Endpoint overrides the collector host:port. When empty the exporter
	// reads OTEL_EXPORTER_OTLP_ENDPOINT and friends from the environment.
	Endpoint string `yaml:"endpoint" envconfig:"TRACER_ENDPOINT"`

	// Insecure sends spans over plain HTTP.
	Insecure bool `yaml:"insecure" envconfig:"TRACER_INSECURE"`

	// SampleRatio is the fraction of root spans to sample, in (0, 1].
	// Zero means always sample.
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"TRACER_SAMPLE_RATIO"`
}

package metrics

// DefaultMetricsAddress is used when Config.Address is empty.
const DefaultMetricsAddress = ":9090"

// Config configures the Prometheus registry and the /metrics server.
type Config struct {
	// Address the metrics server listens on, e.g. ":9090" or "127.0.0.1:9100".
	// Defaults to DefaultMetricsAddress.
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// EnableDefaultCollectors registers the Go runtime, process and build info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric registered through Registerer, so
	// "schema_registry_fetches_total" becomes "<namespace>_schema_registry_fetches_total".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// ServiceName is added as a constant "service" label to every metric.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`
}

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns an isolated Prometheus registry and the HTTP server exposing it.
//
// Collectors of the schema registry facade and the Kafka serializer are
// registered through Registerer, which applies the configured namespace and
// service label.
type Metrics struct {
	// Server serves /metrics.
	Server *http.Server

	// Registry gathers everything registered through Registerer.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
}

// NewMetrics builds the registry, registers the default collectors when enabled
// and prepares, without starting, the HTTP server.
//
// Example:
//
//	m, err := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    ServiceName: "orders-consumer",
//	})
//	registry, err := schema_registry.New(api, schema_registry.WithMetrics(m.Registerer()))
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) (*Metrics, error) {
	registry := prometheus.NewRegistry()

	var registerer prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registerer)
	}
	if cfg.Namespace != "" {
		registerer = prometheus.WrapRegistererWithPrefix(cfg.Namespace+"_", registerer)
	}

	if cfg.EnableDefaultCollectors {
		if err := registerAll(registerer,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		); err != nil {
			return nil, fmt.Errorf("failed to register default collectors: %w", err)
		}
	}

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registerer}))

	return &Metrics{
		Server:     &http.Server{Addr: address, Handler: mux},
		Registry:   registry,
		registerer: registerer,
	}, nil
}

// Registerer returns the registerer applying namespace and service label.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registerer
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return m.Server.Handler
}

func registerAll(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

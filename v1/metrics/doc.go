// Package metrics exposes the Prometheus metrics of the schema registry client.
//
// NewMetrics creates an isolated registry and a /metrics server. Its Registerer
// is what schema_registry.WithMetrics and the Kafka serializer register their
// collectors on:
//
//	schema_registry_cache_requests_total{cache,result}
//	schema_registry_fetches_total{operation,status}
//	schema_registry_operation_duration_seconds{operation}
//	kafka_serializer_messages_total{direction,status}
//
// Direct usage:
//
//	import "github.com/Aleph-Alpha/schema-registry-client/v1/metrics"
//
//	m, err := metrics.NewMetrics(metrics.Config{
//	    Address:                 ":9090",
//	    ServiceName:             "orders-consumer",
//	    EnableDefaultCollectors: true,
//	})
//	if err != nil {
//	    return err
//	}
//	registry, err := schema_registry.New(api, schema_registry.WithMetrics(m.Registerer()))
//	go m.Server.ListenAndServe()
//
// Custom metrics go through the same registerer:
//
//	published, err := m.CreateCounter("orders_published_total", "Orders published", []string{"status"})
//	published.WithLabelValues("ok").Inc()
//
// FX usage:
//
//	app := fx.New(
//	    metrics.FXModule,
//	    schema_registry.FXModule,
//	    fx.Provide(func() metrics.Config { return metrics.Config{Address: ":9090"} }),
//	)
//
// With the modules combined, the registry facade records its metrics on the
// registerer provided here without further wiring.
//
// Configuration:
//
//	METRICS_ADDRESS=:9090
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
//	METRICS_NAMESPACE=orders
//	METRICS_SERVICE_NAME=orders-consumer
package metrics

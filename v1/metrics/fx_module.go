package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/schema-registry-client/v1/logger"
)

// FXModule provides *Metrics, the MetricsCollector interface and the
// prometheus.Registerer picked up by schema_registry.FXModule, and runs the
// /metrics server for the lifetime of the application.
//
// Usage:
//
//	app := fx.New(
//	    metrics.FXModule,
//	    schema_registry.FXModule,
//	    fx.Provide(func() metrics.Config {
//	        return metrics.Config{Address: ":9090", ServiceName: "orders-consumer"}
//	    }),
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		func(m *Metrics) MetricsCollector { return m },
		func(m *Metrics) prometheus.Registerer { return m.Registerer() },
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// MetricsLifecycleParams groups the dependencies of RegisterMetricsLifecycle.
type MetricsLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Metrics   *Metrics
	Logger    logger.Logger `optional:"true"`
}

// RegisterMetricsLifecycle binds the metrics server to the application lifecycle.
//
// OnStart listens synchronously, so a taken port fails startup, and serves in
// the background. OnStop shuts the server down gracefully.
func RegisterMetricsLifecycle(params MetricsLifecycleParams) {
	m := params.Metrics
	log := params.Logger

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", m.Server.Addr)
			if err != nil {
				return err
			}
			if log != nil {
				log.Info("Starting Prometheus metrics server", nil, map[string]interface{}{
					"address": ln.Addr().String(),
				})
			}
			go func() {
				if err := m.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
					log.Error("Prometheus metrics server stopped", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if log != nil {
				log.Info("Shutting down Prometheus metrics server", nil)
			}
			return m.Server.Shutdown(ctx)
		},
	})
}

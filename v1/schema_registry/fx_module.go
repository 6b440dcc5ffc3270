package schema_registry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/schema-registry-client/v1/observability"
)

// FXModule is an fx.Module that provides and configures the Schema Registry client and facade.
// This module registers both with the Fx dependency injection framework,
// making them available to other components in the application.
//
// The module provides:
//  1. API, the registry transport selected by Config.Client ("http" or "franz")
//  2. *Registry, the facade that registers schemas and encodes and decodes messages
//  3. Lifecycle management that drops cached schemas on shutdown
//
// Usage:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(
//	        func() schema_registry.Config {
//	            return schema_registry.Config{
//	                URL:      "http://localhost:8081",
//	                Username: "user",
//	                Password: "pass",
//	            }
//	        },
//	    ),
//	)
var FXModule = fx.Module("schema_registry",
	fx.Provide(
		NewAPIWithDI,
		NewRegistryWithDI,
	),
	fx.Invoke(RegisterSchemaRegistryLifecycle),
)

// SchemaRegistryParams groups the dependencies needed to create the registry transport
type SchemaRegistryParams struct {
	fx.In

	Config Config
}

// NewAPIWithDI creates the registry transport using dependency injection.
//
// Example usage with fx:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(
//	        func() schema_registry.Config {
//	            return schema_registry.Config{
//	                URL:      os.Getenv("SCHEMA_REGISTRY_URL"),
//	                Username: os.Getenv("SCHEMA_REGISTRY_USER"),
//	                Password: os.Getenv("SCHEMA_REGISTRY_PASSWORD"),
//	                Timeout:  30 * time.Second,
//	            }
//	        },
//	    ),
//	)
func NewAPIWithDI(params SchemaRegistryParams) (API, error) {
	return NewAPI(params.Config)
}

// RegistryParams groups the dependencies needed to create the registry facade.
// Everything except API and Config is optional.
type RegistryParams struct {
	fx.In

	API            API
	Config         Config
	Logger         Logger                 `optional:"true"`
	Observer       observability.Observer `optional:"true"`
	Registerer     prometheus.Registerer  `optional:"true"`
	TracerProvider trace.TracerProvider   `optional:"true"`
}

// NewRegistryWithDI creates the registry facade using dependency injection.
//
// Parameters:
//   - params: A RegistryParams struct with the API and Config, and optionally a Logger,
//     an Observer, a prometheus.Registerer and a trace.TracerProvider.
//
// Returns:
//   - *Registry: A registry facade with an empty cache.
//
// Under the hood, this function only forwards the optional dependencies that were
// provided, so a bare application gets a registry without logging, metrics or tracing.
func NewRegistryWithDI(params RegistryParams) (*Registry, error) {
	opts := []Option{WithSchemaOptions(params.Config.SchemaOptions())}
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	if params.Observer != nil {
		opts = append(opts, WithObserver(params.Observer))
	}
	if params.Registerer != nil {
		opts = append(opts, WithMetrics(params.Registerer))
	}
	if params.TracerProvider != nil {
		opts = append(opts, WithTracerProvider(params.TracerProvider))
	}
	return New(params.API, opts...)
}

// SchemaRegistryLifecycleParams groups the dependencies needed for Schema Registry lifecycle management
type SchemaRegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Registry  *Registry
}

// RegisterSchemaRegistryLifecycle registers the registry facade with the fx lifecycle system.
//
// The function:
//  1. On application start: Logs that the registry is ready
//  2. On application stop: Clears the schema cache
func RegisterSchemaRegistryLifecycle(params SchemaRegistryLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Registry.logger.Info("Schema Registry client initialized", nil)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Registry.Cache().Clear()
			params.Registry.logger.Info("Schema Registry client shutdown", nil)
			return nil
		},
	})
}

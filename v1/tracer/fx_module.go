package tracer

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/schema-registry-client/v1/logger"
)

// FXModule provides *Tracer and its trace.TracerProvider. Modules that take
// an optional trace.TracerProvider, like schema_registry.FXModule, pick it
// up automatically.
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    schema_registry.FXModule,
//	    fx.Provide(loadConfigs),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewTracerWithDI,
		func(t *Tracer) trace.TracerProvider { return t.TracerProvider() },
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewTracerWithDI.
type TracerParams struct {
	fx.In

	Config Config
	Logger logger.Logger `optional:"true"`
}

// NewTracerWithDI builds the tracer from injected dependencies.
func NewTracerWithDI(params TracerParams) (*Tracer, error) {
	return NewClient(params.Config, params.Logger)
}

// RegisterTracerLifecycle flushes and shuts down the provider when the app stops.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer.logger != nil {
				tracer.logger.Info("shutting down tracer", nil)
			}
			return tracer.Shutdown(ctx)
		},
	})
}

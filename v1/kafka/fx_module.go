package kafka

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/schema-registry-client/v1/observability"
	"github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"
)

// FXModule provides *KafkaClient and Client. When a *schema_registry.Registry
// is in the graph and no Serializer or Deserializer is, values are framed by
// a RegistrySerializer built from Config.Schema.
//
//	app := fx.New(
//	    logger.FXModule,
//	    schema_registry.FXModule,
//	    kafka.FXModule,
//	    fx.Provide(loadConfigs),
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewClientWithDI,
		func(k *KafkaClient) Client { return k },
	),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies of NewClientWithDI. Everything but the
// Config is optional.
type KafkaParams struct {
	fx.In

	Config         Config
	Logger         Logger                    `optional:"true"`
	Registry       *schema_registry.Registry `optional:"true"`
	Serializer     Serializer                `optional:"true"`
	Deserializer   Deserializer              `optional:"true"`
	Observer       observability.Observer    `optional:"true"`
	Registerer     prometheus.Registerer     `optional:"true"`
	TracerProvider trace.TracerProvider      `optional:"true"`
}

// NewClientWithDI builds the client from injected dependencies.
func NewClientWithDI(params KafkaParams) (*KafkaClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}

	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	if params.TracerProvider != nil {
		client.WithTracerProvider(params.TracerProvider)
	}

	if params.Registry != nil && (params.Serializer == nil || params.Deserializer == nil) {
		rs, err := NewRegistrySerializer(params.Registry, params.Config.Schema, params.Registerer)
		if err != nil {
			return nil, err
		}
		client.SetSerializer(rs)
		client.SetDeserializer(rs)
	}
	if params.Serializer != nil {
		client.SetSerializer(params.Serializer)
	}
	if params.Deserializer != nil {
		client.SetDeserializer(params.Deserializer)
	}

	return client, nil
}

type KafkaLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *KafkaClient
}

func RegisterKafkaLifecycle(params KafkaLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Client.logInfo(ctx, "kafka client started", map[string]interface{}{
				"topic":    params.Client.cfg.Topic,
				"consumer": params.Client.cfg.IsConsumer,
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Client.logInfo(ctx, "shutting down kafka client", nil)
			params.Client.GracefulShutdown()
			return nil
		},
	})
}

// GracefulShutdown stops the consumer workers and closes the writer and
// reader. It is safe to call more than once.
func (k *KafkaClient) GracefulShutdown() {
	k.closeShutdownOnce.Do(func() {
		close(k.shutdownSignal)

		k.mu.Lock()
		defer k.mu.Unlock()

		if k.writer != nil {
			if err := k.writer.Close(); err != nil {
				k.logWarn(context.Background(), "failed to close kafka writer", err, nil)
			}
		}
		if k.reader != nil {
			if err := k.reader.Close(); err != nil {
				k.logWarn(context.Background(), "failed to close kafka reader", err, nil)
			}
		}
	})
}

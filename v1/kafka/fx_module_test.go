package kafka

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/schema-registry-client/v1/logger"
	"github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"
)

// The application logger is accepted wherever the client expects its logger.
var _ Logger = (logger.Logger)(nil)

func TestFXModuleInstallsRegistrySerializer(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, err := schema_registry.New(schema_registry.NewMockAPI(ctrl))
	require.NoError(t, err)
	reg := prometheus.NewRegistry()

	var (
		client *KafkaClient
		iface  Client
	)
	app := fxtest.New(t,
		FXModule,
		fx.Provide(
			func() Config {
				return Config{
					Brokers: []string{"localhost:9092"},
					Topic:   "orders",
					Schema:  SchemaConfig{Subject: "orders-value"},
				}
			},
			func() *schema_registry.Registry { return registry },
			func() prometheus.Registerer { return reg },
		),
		fx.Populate(&client, &iface),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Same(t, client, iface)
	rs, ok := client.serializer.(*RegistrySerializer)
	require.True(t, ok)
	assert.Same(t, rs, client.deserializer)
	assert.Equal(t, "orders-value", rs.schema.Subject)
	assert.NotNil(t, rs.metrics)
}

func TestFXModuleKeepsProvidedSerializer(t *testing.T) {
	custom, err := NewRegistrySerializer(&fakeCodec{}, SchemaConfig{ID: 1}, nil)
	require.NoError(t, err)
	log := &recordingLogger{}

	var client *KafkaClient
	app := fxtest.New(t,
		FXModule,
		fx.Provide(
			func() Config { return Config{Brokers: []string{"localhost:9092"}, Topic: "orders"} },
			func() Serializer { return custom },
			func() Logger { return log },
		),
		fx.Populate(&client),
	)
	app.RequireStart()

	assert.Same(t, custom, client.serializer)
	assert.Nil(t, client.deserializer)

	app.RequireStop()
	assert.Contains(t, log.all(), "shutting down kafka client")

	err = client.Publish(context.Background(), "k", []byte("v"))
	assert.Error(t, err, "the writer is closed")
}

func TestFXModuleRejectsInvalidConfig(t *testing.T) {
	app := fx.New(
		FXModule,
		fx.Provide(func() Config { return Config{Topic: "orders"} }),
		fx.NopLogger,
	)
	assert.Error(t, app.Err())
}

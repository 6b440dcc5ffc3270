package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestFXModuleProvidesRegisterer(t *testing.T) {
	var (
		m          *Metrics
		collector  MetricsCollector
		registerer prometheus.Registerer
	)

	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() Config { return Config{Address: "127.0.0.1:0", ServiceName: "fx-test"} }),
		fx.Populate(&m, &collector, &registerer),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, m)
	assert.Same(t, m, collector)
	assert.Equal(t, m.Registerer(), registerer)
}

func TestFXModuleFailsOnInvalidAddress(t *testing.T) {
	app := fx.New(
		FXModule,
		fx.Provide(func() Config { return Config{Address: "127.0.0.1:-1"} }),
		fx.NopLogger,
	)
	require.NoError(t, app.Err())
	assert.Error(t, app.Start(t.Context()))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector creates application metrics on the shared registry.
//
// This interface is implemented by the concrete *Metrics type.
type MetricsCollector interface {
	// Registerer is handed to schema_registry.WithMetrics and kafka.Config.
	Registerer() prometheus.Registerer

	// CreateCounter creates a new CounterVec metric and registers it.
	CreateCounter(name, help string, labels []string) (*prometheus.CounterVec, error)

	// CreateHistogram creates a new HistogramVec metric and registers it.
	CreateHistogram(name, help string, labels []string, buckets []float64) (*prometheus.HistogramVec, error)

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) (*prometheus.GaugeVec, error)
}

var _ MetricsCollector = (*Metrics)(nil)

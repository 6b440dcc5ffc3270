package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CreateCounter registers a CounterVec. Creating a counter that already exists
// returns the registered one.
func (m *Metrics) CreateCounter(name, help string, labels []string) (*prometheus.CounterVec, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	existing, err := register(m.registerer, counter)
	if err != nil {
		return nil, err
	}
	vec, ok := existing.(*prometheus.CounterVec)
	if !ok {
		return nil, fmt.Errorf("metric %q is already registered as %T", name, existing)
	}
	return vec, nil
}

// CreateHistogram registers a HistogramVec. Nil buckets use prometheus.DefBuckets.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) (*prometheus.HistogramVec, error) {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
	existing, err := register(m.registerer, hist)
	if err != nil {
		return nil, err
	}
	vec, ok := existing.(*prometheus.HistogramVec)
	if !ok {
		return nil, fmt.Errorf("metric %q is already registered as %T", name, existing)
	}
	return vec, nil
}

// CreateGauge registers a GaugeVec.
func (m *Metrics) CreateGauge(name, help string, labels []string) (*prometheus.GaugeVec, error) {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	existing, err := register(m.registerer, gauge)
	if err != nil {
		return nil, err
	}
	vec, ok := existing.(*prometheus.GaugeVec)
	if !ok {
		return nil, fmt.Errorf("metric %q is already registered as %T", name, existing)
	}
	return vec, nil
}

// register registers c and returns the collector now serving its descriptor.
func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

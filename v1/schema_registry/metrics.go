package schema_registry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// registryMetrics holds the Prometheus collectors of a Registry. A nil
// *registryMetrics records nothing.
type registryMetrics struct {
	cacheRequests *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

func newRegistryMetrics(reg prometheus.Registerer) (*registryMetrics, error) {
	m := &registryMetrics{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schema_registry_cache_requests_total",
			Help: "Schema cache lookups by cache and result (hit or miss).",
		}, []string{"cache", "result"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schema_registry_fetches_total",
			Help: "Calls to the schema registry by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schema_registry_operation_duration_seconds",
			Help:    "Duration of registry facade operations in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{m.cacheRequests, m.fetches, m.duration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			// Share the collector registered by another Registry on the same registerer.
			switch existing := are.ExistingCollector.(type) {
			case *prometheus.CounterVec:
				if c == prometheus.Collector(m.cacheRequests) {
					m.cacheRequests = existing
				} else {
					m.fetches = existing
				}
			case *prometheus.HistogramVec:
				m.duration = existing
			}
		}
	}
	return m, nil
}

func (m *registryMetrics) cacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(cache, result).Inc()
}

func (m *registryMetrics) fetch(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	switch {
	case IsNotFound(err):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	m.fetches.WithLabelValues(operation, status).Inc()
}

func (m *registryMetrics) observeDuration(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

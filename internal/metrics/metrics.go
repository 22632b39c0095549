// Package metrics exposes Prometheus collectors for the relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for statusrelay. A nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	operationsTotal *prometheus.CounterVec
	lookupsTotal    *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statusrelay_operations_total",
			Help: "Plugin protocol operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statusrelay_lookups_total",
			Help: "Status page lookups by service and outcome.",
		}, []string{"service", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statusrelay_lookup_duration_seconds",
			Help:    "Duration of status page lookups in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
	}

	registry.MustRegister(
		m.operationsTotal,
		m.lookupsTotal,
		m.lookupDuration,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncOperation counts one dispatched operation.
func (m *Metrics) IncOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveLookup records a status lookup. Lookups that never reached the
// provider (zero duration) are counted but not timed.
func (m *Metrics) ObserveLookup(service, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(service, outcome).Inc()
	if duration > 0 {
		m.lookupDuration.WithLabelValues(service).Observe(duration.Seconds())
	}
}

// OperationsTotal returns the operations counter.
func (m *Metrics) OperationsTotal() *prometheus.CounterVec {
	return m.operationsTotal
}

// LookupsTotal returns the lookups counter.
func (m *Metrics) LookupsTotal() *prometheus.CounterVec {
	return m.lookupsTotal
}

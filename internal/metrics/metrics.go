// Package metrics exposes Prometheus collectors for searches and exchange-rate
// lookups on a registry private to the process wiring.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nuts_optimizer"

// Metrics implements allocator.Recorder and fx.Recorder.
type Metrics struct {
	registry       *prometheus.Registry
	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	fxLookups      *prometheus.CounterVec
	fxCache        *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Allocation searches by tolerance policy and outcome.",
		}, []string{"policy", "outcome"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Allocation search latency.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"policy"}),
		fxLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_lookups_total",
			Help:      "Exchange rate source attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		fxCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_cache_requests_total",
			Help:      "Exchange rate cache lookups by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searches,
		m.searchDuration,
		m.fxLookups,
		m.fxCache,
	)

	return m
}

func (m *Metrics) ObserveSearch(policy, outcome string, elapsed time.Duration) {
	m.searches.WithLabelValues(policy, outcome).Inc()
	m.searchDuration.WithLabelValues(policy).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLookup(source, outcome string) {
	m.fxLookups.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ObserveCache(outcome string) {
	m.fxCache.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

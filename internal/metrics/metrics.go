// Package metrics exposes Prometheus counters for the session components.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns a private registry so several sessions in one process
// (tests) do not collide.
type Manager struct {
	Registry *prometheus.Registry

	FetchTotal       *prometheus.CounterVec
	FetchLatency     *prometheus.HistogramVec
	Transitions      *prometheus.CounterVec
	ImageResults     *prometheus.CounterVec
	RouteResults     *prometheus.CounterVec
	ListingsGauge    prometheus.Gauge
	PrefetchRequests *prometheus.CounterVec
}

func New(namespace string) *Manager {
	reg := prometheus.NewRegistry()
	m := &Manager{
		Registry: reg,
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Feed fetches by outcome.",
		}, []string{"outcome"}),
		FetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_seconds",
			Help:      "Feed fetch latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_transitions_total",
			Help:      "Applied selection transitions.",
		}, []string{"transition"}),
		ImageResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cache_results_total",
			Help:      "Image cache lookups by result.",
		}, []string{"result"}),
		RouteResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "Directions requests by outcome.",
		}, []string{"outcome"}),
		ListingsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_listings",
			Help:      "Listings in the published feed.",
		}),
		PrefetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prefetch_requests_total",
			Help:      "Thumbnail prefetch requests by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.FetchTotal,
		m.FetchLatency,
		m.Transitions,
		m.ImageResults,
		m.RouteResults,
		m.ListingsGauge,
		m.PrefetchRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Manager) ObserveFetch(outcome string, took time.Duration) {
	m.FetchTotal.WithLabelValues(outcome).Inc()
	m.FetchLatency.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *Manager) ObserveTransition(name string) {
	m.Transitions.WithLabelValues(name).Inc()
}

func (m *Manager) ObserveImage(result string) {
	m.ImageResults.WithLabelValues(result).Inc()
}

func (m *Manager) ObserveRoute(outcome string) {
	m.RouteResults.WithLabelValues(outcome).Inc()
}

func (m *Manager) ObservePrefetch(result string) {
	m.PrefetchRequests.WithLabelValues(result).Inc()
}

func (m *Manager) SetListings(n int) {
	m.ListingsGauge.Set(float64(n))
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

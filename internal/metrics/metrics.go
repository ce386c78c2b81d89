// Package metrics exposes Prometheus instrumentation for the timing
// engine and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and histograms for the service.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	recomputesTotal        prometheus.Counter
	recomputeDuration      prometheus.Histogram
	segmentResolvesTotal   prometheus.Counter
	simulatedResolvesTotal prometheus.Counter
	activePlaylists        prometheus.Gauge
}

// New creates and registers Prometheus metrics for the service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sofie_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sofie_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	recomputesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sofie_timing_recomputes_total",
		Help: "Total number of rundown timing recomputations",
	})
	recomputeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sofie_timing_recompute_duration_seconds",
		Help:    "Duration of rundown timing recomputations",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	segmentResolvesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sofie_segment_resolves_total",
		Help: "Total number of segment resolutions",
	})
	simulatedResolvesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sofie_simulated_piece_resolves_total",
		Help: "Total number of piece resolutions that returned simulated results",
	})
	activePlaylists := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sofie_active_playlists",
		Help: "Number of playlists with an activation id set",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		recomputesTotal,
		recomputeDuration,
		segmentResolvesTotal,
		simulatedResolvesTotal,
		activePlaylists,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		recomputesTotal:        recomputesTotal,
		recomputeDuration:      recomputeDuration,
		segmentResolvesTotal:   segmentResolvesTotal,
		simulatedResolvesTotal: simulatedResolvesTotal,
		activePlaylists:        activePlaylists,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// ObserveRecompute records one timing recomputation and its duration.
func (m *Metrics) ObserveRecompute(d time.Duration) {
	m.recomputesTotal.Inc()
	m.recomputeDuration.Observe(d.Seconds())
}

// IncSegmentResolves increments the segment resolution counter.
func (m *Metrics) IncSegmentResolves() {
	m.segmentResolvesTotal.Inc()
}

// IncSimulatedResolves increments the simulated piece resolution counter.
func (m *Metrics) IncSimulatedResolves() {
	m.simulatedResolvesTotal.Inc()
}

// SetActivePlaylists sets the active playlists gauge.
func (m *Metrics) SetActivePlaylists(n int) {
	m.activePlaylists.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

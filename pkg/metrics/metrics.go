// Package metrics defines the Prometheus collectors of the portfolio service
// and the scrape endpoint that exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ChatRequestsTotal    *prometheus.CounterVec
	DemoRequestsTotal    *prometheus.CounterVec
	DemoSimulatedLatency *prometheus.HistogramVec
	SearchComparisons    *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	StreamsActive        prometheus.Gauge
	AnalyticsDropped     prometheus.Counter
}

// New creates all collectors and registers them with reg. A nil reg uses
// the process-wide default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ChatRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_requests_total",
				Help: "Chat messages handled by classified intent.",
			},
			[]string{"intent"},
		),
		DemoRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demo_requests_total",
				Help: "Demo kernel invocations by type, mode and outcome.",
			},
			[]string{"type", "mode", "outcome"},
		),
		DemoSimulatedLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demo_simulated_latency_seconds",
				Help:    "Simulated latency reported by demo kernels (not measured I/O).",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"type", "mode"},
		),
		SearchComparisons: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demo_search_comparisons",
				Help:    "Comparisons performed per log search by mode.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"mode"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "demo_cache_hits_total",
				Help: "Total number of flight cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "demo_cache_misses_total",
				Help: "Total number of flight cache misses.",
			},
		),
		StreamsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "demo_realtime_streams_active",
				Help: "Open realtime websocket streams.",
			},
		),
		AnalyticsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_events_dropped_total",
				Help: "Analytics events dropped because the buffer was full.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ChatRequestsTotal,
		m.DemoRequestsTotal,
		m.DemoSimulatedLatency,
		m.SearchComparisons,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.StreamsActive,
		m.AnalyticsDropped,
	)

	return m
}

// ObserveChat counts one chat request.
func (m *Metrics) ObserveChat(intent string) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(intent).Inc()
}

// ObserveDemo records one demo invocation and its simulated latency.
func (m *Metrics) ObserveDemo(demoType, mode, outcome string, simulatedSeconds float64) {
	if m == nil {
		return
	}
	m.DemoRequestsTotal.WithLabelValues(demoType, mode, outcome).Inc()
	if outcome == "ok" {
		m.DemoSimulatedLatency.WithLabelValues(demoType, mode).Observe(simulatedSeconds)
	}
}

func (m *Metrics) ObserveComparisons(mode string, n int) {
	if m == nil {
		return
	}
	m.SearchComparisons.WithLabelValues(mode).Observe(float64(n))
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
	} else {
		m.CacheMissesTotal.Inc()
	}
}

func (m *Metrics) StreamOpened() {
	if m != nil {
		m.StreamsActive.Inc()
	}
}

func (m *Metrics) StreamClosed() {
	if m != nil {
		m.StreamsActive.Dec()
	}
}

func (m *Metrics) AnalyticsDrop() {
	if m != nil {
		m.AnalyticsDropped.Inc()
	}
}

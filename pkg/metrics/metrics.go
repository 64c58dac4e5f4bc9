// Package metrics defines the Prometheus collectors of the parser service
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Parse outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeWarnings = "warnings"
	OutcomeTooLong  = "too_long"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ParsesTotal          *prometheus.CounterVec
	ParseLatency         *prometheus.HistogramVec
	ParseWarningsTotal   *prometheus.CounterVec
	QueryClassesTotal    *prometheus.CounterVec
	FeaturesUsedTotal    *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	RateLimitedTotal     prometheus.Counter
	AnalyticsEventsTotal *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
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
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ParsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_parses_total",
				Help: "Total query parses by outcome (ok, warnings, too_long, error).",
			},
			[]string{"outcome"},
		),
		ParseLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_parse_latency_seconds",
				Help:    "Query parse latency in seconds.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"cache_status"},
		),
		ParseWarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_parse_warnings_total",
				Help: "Parse warnings by warning code.",
			},
			[]string{"code"},
		),
		QueryClassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_classes_total",
				Help: "Parsed queries by class.",
			},
			[]string{"class"},
		),
		FeaturesUsedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_features_used_total",
				Help: "Keyword features used by parsed queries.",
			},
			[]string{"feature"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "parse_cache_hits_total",
				Help: "Total number of parse cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "parse_cache_misses_total",
				Help: "Total number of parse cache misses.",
			},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
		AnalyticsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_total",
				Help: "Parse analytics events by status (published, dropped).",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ParsesTotal,
		m.ParseLatency,
		m.ParseWarningsTotal,
		m.QueryClassesTotal,
		m.FeaturesUsedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RateLimitedTotal,
		m.AnalyticsEventsTotal,
		m.CircuitBreakerState,
	)

	return m
}

// ParseObservation is what a single parse reports.
type ParseObservation struct {
	Outcome     string
	CacheStatus string
	Duration    time.Duration
	Warnings    []string
	Classes     []string
	Features    []string
}

func (m *Metrics) ObserveParse(o ParseObservation) {
	m.ParsesTotal.WithLabelValues(o.Outcome).Inc()
	m.ParseLatency.WithLabelValues(o.CacheStatus).Observe(o.Duration.Seconds())
	for _, code := range o.Warnings {
		m.ParseWarningsTotal.WithLabelValues(code).Inc()
	}
	for _, class := range o.Classes {
		m.QueryClassesTotal.WithLabelValues(class).Inc()
	}
	for _, f := range o.Features {
		m.FeaturesUsedTotal.WithLabelValues(f).Inc()
	}
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

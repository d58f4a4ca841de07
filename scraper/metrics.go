package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	SourcesScrapedTotal *prometheus.CounterVec
	CacheHitsTotal      prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_requests_total",
			Help: "Total HTTP requests issued by the source crawler.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sourcing_request_duration_seconds",
			Help:    "HTTP request latency for source fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	sourcesScraped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_sources_scraped_total",
			Help: "Total sources scraped, by outcome status.",
		},
		[]string{"status"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcing_cache_hits_total",
			Help: "Duplicate source URLs served from the body cache.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_errors_total",
			Help: "Total fetch errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, sourcesScraped, cacheHits, errorsTotal)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		SourcesScrapedTotal: sourcesScraped,
		CacheHitsTotal:      cacheHits,
		ErrorsTotal:         errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncScraped increments the per-status scraped sources counter.
func (m *Metrics) IncScraped(status string) {
	if m == nil {
		return
	}
	m.SourcesScrapedTotal.WithLabelValues(status).Inc()
}

// IncCacheHit increments the body cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

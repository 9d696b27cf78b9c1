// Package metrics defines the Prometheus collectors used across the engine
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
	CacheSweepsTotal  prometheus.Counter
	AnalyzeTotal      *prometheus.CounterVec
	AnalyzeLatency    prometheus.Histogram
	ScoreTotal        *prometheus.CounterVec
	BatchPagesTotal   *prometheus.CounterVec
	LastBatchRunUnix  prometheus.Gauge
	ProviderFallbacks prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "research_cache_hits_total",
			Help: "Total research cache hits.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "research_cache_misses_total",
			Help: "Total research cache misses, including logically expired entries.",
		}),
		CacheSweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "research_cache_sweeps_total",
			Help: "Total expired entries removed by cache sweeps.",
		}),
		AnalyzeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyze_requests_total",
			Help: "Total analyze calls by outcome (cached, computed, fallback, empty).",
		}, []string{"outcome"}),
		AnalyzeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyze_duration_seconds",
			Help:    "Analyze call latency in seconds.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ScoreTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "icp_scores_total",
			Help: "Total ICP scoring calls by recommendation.",
		}, []string{"recommendation"}),
		BatchPagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_pages_total",
			Help: "Total batch orchestrator pages by result (processed, failed).",
		}, []string{"result"}),
		LastBatchRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "batch_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed batch run.",
		}),
		ProviderFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "similarity_provider_fallbacks_total",
			Help: "Times the keyword-overlap fallback replaced the similarity provider.",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.CacheHitsTotal, m.CacheMissesTotal, m.CacheSweepsTotal,
		m.AnalyzeTotal, m.AnalyzeLatency, m.ScoreTotal,
		m.BatchPagesTotal, m.LastBatchRunUnix, m.ProviderFallbacks,
	)
	return m
}

// Handler returns the HTTP handler serving the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics defines the Prometheus metric collectors used across the
// engine and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the ranking engine.
type Metrics struct {
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	QueryCandidates      prometheus.Histogram
	QueryTermCount       prometheus.Histogram
	RankingCutoffTotal   prometheus.Counter
	BucketDepth          prometheus.Histogram
	RelaxationRetries    prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ranking_queries_total",
				Help: "Total ranked queries by outcome (ok, zero_result, cutoff, error).",
			},
			[]string{"outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ranking_query_latency_seconds",
				Help:    "End-to-end ranking latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2.5},
			},
			[]string{"strategy"},
		),
		QueryCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranking_candidates_per_query",
				Help:    "Number of candidate documents entering the bucket sort.",
				Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
			},
		),
		QueryTermCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranking_query_terms",
				Help:    "Number of query terms after tokenization and capping.",
				Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
			},
		),
		RankingCutoffTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ranking_cutoff_total",
				Help: "Queries that hit the wall-clock ranking cutoff.",
			},
		),
		BucketDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranking_bucket_depth",
				Help:    "Deepest rule index reached while resolving buckets.",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8},
			},
		),
		RelaxationRetries: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranking_relaxation_retries",
				Help:    "Matching-strategy retries before enough results were found.",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 9},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "query_cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "query_cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
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
	}

	prometheus.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryCandidates,
		m.QueryTermCount,
		m.RankingCutoffTotal,
		m.BucketDepth,
		m.RelaxationRetries,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

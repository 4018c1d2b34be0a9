// Package metrics provides Prometheus metrics for the HTTP server and the search core.
//
// HTTP:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//
// Search:
//   - drug_search_total: Counter with strategy label (empty, primary, fallback)
//   - drug_search_bad_total: Counter of searches flagged as bad
//   - drug_search_duration_seconds: Histogram with strategy label
//   - drug_corpus_size: Gauge of published drugs
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets currently tracked",
		},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drug_search_total",
			Help: "Searches served, by the strategy whose ranking was returned",
		},
		[]string{"strategy"},
	)

	BadSearchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drug_search_bad_total",
			Help: "Searches flagged as bad",
		},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drug_search_duration_seconds",
			Help:    "Time spent ranking a query",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"strategy"},
	)

	CorpusSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drug_corpus_size",
			Help: "Number of drugs in the published corpus",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(BadSearchTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(CorpusSize)
}

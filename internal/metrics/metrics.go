// Package metrics exposes Prometheus collectors for the aggregation service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	adapterFetchesTotal     *prometheus.CounterVec
	postingsCollectedTotal  *prometheus.CounterVec
	cacheRequestsTotal      *prometheus.CounterVec
	searchCallsTotal        prometheus.Counter
	runDurationSeconds      prometheus.Histogram
	runsTotal               *prometheus.CounterVec
	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDurationSecs *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		adapterFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregator_adapter_fetches_total",
				Help: "Total adapter fetch attempts, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		postingsCollectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregator_postings_collected_total",
				Help: "Total postings collected, labeled by source.",
			},
			[]string{"source"},
		)

		cacheRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregator_cache_requests_total",
				Help: "Total cache lookups, labeled by outcome (hit or miss).",
			},
			[]string{"outcome"},
		)

		searchCallsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aggregator_search_calls_total",
				Help: "Total metered web-search API calls issued.",
			},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aggregator_run_duration_seconds",
				Help:    "Histogram of batch run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregator_runs_total",
				Help: "Total batch runs, labeled by terminal state.",
			},
			[]string{"state"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one adapter fetch attempt and its yield.
func ObserveFetch(source, status string, postings int) {
	adapterFetchesTotal.WithLabelValues(source, status).Inc()
	if postings > 0 {
		postingsCollectedTotal.WithLabelValues(source).Add(float64(postings))
	}
}

// ObserveCacheHit increments the cache hit counter.
func ObserveCacheHit() {
	cacheRequestsTotal.WithLabelValues("hit").Inc()
}

// ObserveCacheMiss increments the cache miss counter.
func ObserveCacheMiss() {
	cacheRequestsTotal.WithLabelValues("miss").Inc()
}

// ObserveSearchCalls adds the number of web-search calls a run issued.
func ObserveSearchCalls(n int) {
	if n > 0 {
		searchCallsTotal.Add(float64(n))
	}
}

// ObserveRun records a finished batch run.
func ObserveRun(state string, duration time.Duration) {
	runsTotal.WithLabelValues(state).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecs.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Fetch metrics
	TransactionsFetched prometheus.Counter
	ActionsDecoded      *prometheus.CounterVec
	SwapSamplesTaken    prometheus.Counter
	DuplicatesSkipped   prometheus.Counter
	FetchErrors         prometheus.Counter

	// Explorer API metrics
	APICalls       *prometheus.CounterVec
	APIRetries     prometheus.Counter
	RateLimitHits  prometheus.Counter
	APICallLatency *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulFetch prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "aerodrome_lp_lab"
	}

	return &Metrics{
		// Fetch metrics
		TransactionsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "transactions_fetched_total",
			Help:      "Total number of position manager transactions fetched",
		}),
		ActionsDecoded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "actions_decoded_total",
			Help:      "Total number of position actions decoded by event type",
		}, []string{"event"}),
		SwapSamplesTaken: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "swap_samples_taken_total",
			Help:      "Total number of pool swap price samples taken",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of archive rows skipped as duplicates",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of per-transaction fetch errors",
		}),

		// Explorer API metrics
		APICalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "basescan",
			Name:      "api_calls_total",
			Help:      "Total number of successful explorer API calls by action",
		}, []string{"action"}),
		APIRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "basescan",
			Name:      "api_retries_total",
			Help:      "Total number of explorer API retry attempts",
		}),
		RateLimitHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "basescan",
			Name:      "rate_limit_hits_total",
			Help:      "Total number of explorer rate limit responses",
		}),
		APICallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "basescan",
			Name:      "api_call_latency_seconds",
			Help:      "Explorer API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),

		// Health metrics
		LastSuccessfulFetch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of last successful position fetch",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTransactionsFetched adds to the transactions fetched counter.
func RecordTransactionsFetched(n int) {
	DefaultMetrics.TransactionsFetched.Add(float64(n))
}

// RecordActionDecoded increments the decoded actions counter for one event.
func RecordActionDecoded(event string) {
	DefaultMetrics.ActionsDecoded.WithLabelValues(event).Inc()
}

// RecordSwapSampleTaken increments the swap samples taken counter.
func RecordSwapSampleTaken() {
	DefaultMetrics.SwapSamplesTaken.Inc()
}

// RecordDuplicateSkipped increments the duplicates skipped counter.
func RecordDuplicateSkipped() {
	DefaultMetrics.DuplicatesSkipped.Inc()
}

// RecordFetchError increments the fetch errors counter.
func RecordFetchError() {
	DefaultMetrics.FetchErrors.Inc()
}

// RecordAPICall records a completed explorer API call and its latency.
func RecordAPICall(action string, seconds float64) {
	DefaultMetrics.APICalls.WithLabelValues(action).Inc()
	DefaultMetrics.APICallLatency.WithLabelValues(action).Observe(seconds)
}

// RecordAPIRetry increments the API retries counter.
func RecordAPIRetry() {
	DefaultMetrics.APIRetries.Inc()
}

// RecordRateLimitHit increments the rate limit hits counter.
func RecordRateLimitHit() {
	DefaultMetrics.RateLimitHits.Inc()
}

// RecordFetchCompleted marks the time of a successful position fetch.
func RecordFetchCompleted(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulFetch.Set(float64(unixSeconds))
}

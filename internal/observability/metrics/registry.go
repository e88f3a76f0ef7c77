// Package metrics provides centralized Prometheus metrics for the
// application, plus the exact-percentile in-memory registry the
// get_metrics RPC tool reports from (see percentiles.go).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Aggregation pipeline metrics track the cascade, aggregator, cache,
// and rate limiter.
var (
	// ArticlesFetchedTotal counts articles surfaced per publisher and source type.
	ArticlesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_fetched_total",
			Help: "Total number of articles fetched per publisher and source type",
		},
		[]string{"domain", "source_type"},
	)

	// CascadeTierDuration measures time spent fetching one priority tier.
	CascadeTierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cascade_tier_duration_seconds",
			Help:    "Time taken to fetch and parse one cascade priority tier",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"domain", "rank"},
	)

	// FeedCrawlErrors counts errors during feed/scraper fetching.
	FeedCrawlErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_crawl_errors_total",
			Help: "Total number of feed/scraper fetch errors",
		},
		[]string{"domain", "error_type"},
	)

	// ContentFetchAttemptsTotal counts deep-scrape attempts by result.
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of deep-scrape content fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to deep-scrape an article.
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch and extract article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// ContentFetchSize measures deep-scraped content size in bytes.
	ContentFetchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "content_fetch_size_bytes",
			Help: "Deep-scraped article content size in bytes",
			Buckets: []float64{
				100, 200, 400, 800, 1600, 3200, 6400, 12800,
				25600, 51200, 102400, 204800, 409600, 819200,
				1638400, 3276800, 6553600, 10485760, // up to 10MB
			},
		},
	)

	// CacheHitsTotal / CacheMissesTotal count response cache outcomes.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Name: "cache_hits_total", Help: "Total number of response cache hits"},
	)
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{Name: "cache_misses_total", Help: "Total number of response cache misses"},
	)

	// RateLimitAllowedTotal / RateLimitDeniedTotal count admission decisions.
	RateLimitAllowedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Name: "rate_limit_allowed_total", Help: "Total number of requests admitted by the rate limiter"},
	)
	RateLimitDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Name: "rate_limit_denied_total", Help: "Total number of requests denied by the rate limiter"},
	)

	// AggregatorDuration measures the full cross-publisher aggregation call.
	AggregatorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregator_duration_seconds",
			Help:    "Time taken to complete a cross-publisher aggregation",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named operation via
// the shared percentile registry (see percentiles.go).
func RecordOperationDuration(operation string, duration time.Duration) {
	Default.ObserveDuration(operation, duration)
}

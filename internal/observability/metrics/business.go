package metrics

import "time"

// RecordArticlesFetched records the number of articles a source type
// contributed for a publisher domain.
func RecordArticlesFetched(domain, sourceType string, count int) {
	ArticlesFetchedTotal.WithLabelValues(domain, sourceType).Add(float64(count))
	Default.IncrCounter("fetch_success")
}

// RecordCascadeTier records the duration of fetching one priority tier.
func RecordCascadeTier(domain string, rank int, duration time.Duration) {
	CascadeTierDuration.WithLabelValues(domain, rankLabel(rank)).Observe(duration.Seconds())
	Default.ObserveDuration("cascade_tier", duration)
}

func rankLabel(rank int) string {
	digits := [...]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	if rank >= 0 && rank < len(digits) {
		return digits[rank]
	}
	return "n"
}

// RecordFetchError records an error during feed/scraper fetching and
// increments the matching Default counter used by get_metrics.
func RecordFetchError(domain, errorType string) {
	FeedCrawlErrors.WithLabelValues(domain, errorType).Inc()
	Default.IncrCounter("fetch_" + errorType)
}

// RecordContentFetchSuccess records a successful deep-scrape.
func RecordContentFetchSuccess(duration time.Duration, size int) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
	ContentFetchSize.Observe(float64(size))
	Default.ObserveDuration("content_fetch", duration)
}

// RecordContentFetchFailed records a failed deep-scrape attempt.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
	Default.ObserveDuration("content_fetch", duration)
}

// RecordContentFetchSkipped records a deep-scrape that was never
// attempted because it was beyond the per-call cap.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordCacheHit / RecordCacheMiss record response-cache outcomes.
func RecordCacheHit() {
	CacheHitsTotal.Inc()
	Default.IncrCounter("cache_hit")
}

func RecordCacheMiss() {
	CacheMissesTotal.Inc()
	Default.IncrCounter("cache_miss")
}

// RecordRateLimitDecision records an admission-control outcome.
func RecordRateLimitDecision(allowed bool) {
	if allowed {
		RateLimitAllowedTotal.Inc()
		Default.IncrCounter("rate_limit_allowed")
		return
	}
	RateLimitDeniedTotal.Inc()
	Default.IncrCounter("rate_limit_denied")
}

// RecordAggregatorRun records the duration of a full cross-publisher
// aggregation call.
func RecordAggregatorRun(duration time.Duration) {
	AggregatorDuration.Observe(duration.Seconds())
	Default.ObserveDuration("aggregator", duration)
}

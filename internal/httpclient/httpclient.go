// Package httpclient provides the shared, safety-filtered HTTP client
// used by every upstream fetcher (feed parser, listing scraper, deep
// scraper). It centralizes SSRF validation, redirect checking, bounded
// retries, circuit breaking, and pacing so no fetcher talks to
// net/http directly (component C1).
package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"newsnexus/internal/domain/entity"
	"newsnexus/internal/observability/metrics"
	"newsnexus/internal/resilience/circuitbreaker"
	"newsnexus/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

// Config tunes one Client. Each cascade tier/source gets its own
// Client built from a Config tailored to its role (cascade fetch vs.
// deep-scrape), per spec §4.1.
type Config struct {
	// Timeout bounds a single request attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries beyond the first attempt.
	// Cascade fetches use 0 (fail fast, the next tier picks up the
	// slack); deep-scrape uses 1.
	MaxRetries int
	// MaxRedirects bounds the redirect chain length.
	MaxRedirects int
	// RatePerSecond and Burst configure the per-client token bucket
	// pacer. Zero RatePerSecond disables pacing.
	RatePerSecond float64
	Burst         int
	// CircuitBreakerName identifies this client's breaker in logs.
	CircuitBreakerName string
	UserAgent          string
	// SkipSSRFValidation disables the private-IP/localhost check. It
	// exists only so tests can point a Client at an httptest server;
	// production configs must never set it.
	SkipSSRFValidation bool
}

// DefaultCascadeConfig returns the config used for tier fetches: no
// retries (the cascade itself provides redundancy across tiers), a
// short per-source timeout, and light pacing.
func DefaultCascadeConfig() Config {
	return Config{
		Timeout:            3 * time.Second,
		MaxRetries:         0,
		MaxRedirects:       5,
		RatePerSecond:      5,
		Burst:              5,
		CircuitBreakerName: "cascade-fetch",
		UserAgent:          "CatchUpFeedBot/1.0",
	}
}

// DefaultDeepScrapeConfig returns the config used for per-article deep
// scraping: one retry, a tighter per-article deadline.
func DefaultDeepScrapeConfig() Config {
	return Config{
		Timeout:            2 * time.Second,
		MaxRetries:         1,
		MaxRedirects:       5,
		RatePerSecond:      10,
		Burst:              10,
		CircuitBreakerName: "deep-scrape",
		UserAgent:          "CatchUpFeedBot/1.0",
	}
}

// Client wraps http.Client with SSRF validation, retry, circuit
// breaking, and pacing. Safe for concurrent use.
type Client struct {
	cfg            Config
	http           *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	limiter        *rate.Limiter
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	c := &Client{
		cfg: cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             cfg.CircuitBreakerName,
			MaxRequests:      5,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		}),
		retryConfig: retry.Config{
			MaxAttempts:    cfg.MaxRetries + 1,
			InitialDelay:   300 * time.Millisecond,
			MaxDelay:       3 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
		},
	}

	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}

	c.http = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			if !cfg.SkipSSRFValidation {
				if err := entity.ValidateURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect target failed validation: %w", err)
				}
			}
			return nil
		},
	}

	return c
}

// FetchResult is a successfully fetched, size-bounded response body.
type FetchResult struct {
	Body       []byte
	StatusCode int
	FinalURL   string
}

// maxBodyBytes bounds how much of a response body gets read, so a
// malicious or misbehaving upstream cannot exhaust memory.
const maxBodyBytes = 10 * 1024 * 1024

// Get fetches rawURL through validation, pacing, the circuit breaker,
// and bounded retries. Returns a KindedError on every failure path so
// callers can classify failures without inspecting error internals.
func (c *Client) Get(ctx context.Context, rawURL string) (FetchResult, error) {
	if !c.cfg.SkipSSRFValidation {
		if err := entity.ValidateURL(rawURL); err != nil {
			return FetchResult{}, entity.NewKindedError(entity.ErrKindInvalidArgument, err.Error())
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return FetchResult{}, entity.NewKindedError(entity.ErrKindUpstreamTimeout, "rate limiter wait: "+err.Error())
		}
	}

	var result FetchResult
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doFetch(ctx, rawURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("http client circuit breaker open, request rejected",
					slog.String("breaker", c.cfg.CircuitBreakerName),
					slog.String("url", rawURL))
			}
			return err
		}
		result = cbResult.(FetchResult)
		return nil
	})

	if retryErr != nil {
		metrics.RecordFetchError(hostOf(rawURL), classify(retryErr))
		return FetchResult{}, toKindedError(retryErr)
	}

	return result, nil
}

func (c *Client) doFetch(ctx context.Context, rawURL string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml,application/rss+xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return FetchResult{}, fmt.Errorf("%w: request exceeded %v", errTimeout, c.cfg.Timeout)
		}
		return FetchResult{}, fmt.Errorf("%w: %v", errConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return FetchResult{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return FetchResult{}, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	return FetchResult{Body: body, StatusCode: resp.StatusCode, FinalURL: resp.Request.URL.String()}, nil
}

// Package requesthandler implements the request handler (component
// C14): the single entry point both transport adapters call into.
// States: validate -> rate-limit -> cache-check -> cascade/aggregate
// -> filter -> cache-store -> respond, per spec §4.14.
package requesthandler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"newsnexus/internal/aggregator"
	"newsnexus/internal/cascade"
	"newsnexus/internal/domain/entity"
	"newsnexus/internal/observability/metrics"
	"newsnexus/internal/publisherregistry"
	"newsnexus/internal/respcache"
	"newsnexus/pkg/ratelimit"
)

// relaxedDomain accepts both full domains ("openai.com") and the
// partial names publisherregistry.Lookup resolves by prefix scan
// ("openai"), per spec §4.14's "relaxed pattern" requirement.
var relaxedDomain = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

const (
	minDays         = 1
	maxDays         = 365
	recentDaysCap   = 15
	minCount        = 1
	maxCount        = 50
	maxSanitizedLen = 80
	rateLimitCount  = 10
	rateLimitWindow = 60 * time.Second
)

// Config tunes one Handler.
type Config struct {
	Cache      respcache.Config
	RateLimitN int
	RateLimitW time.Duration
}

// DefaultConfig returns the spec's documented C14 defaults.
func DefaultConfig() Config {
	return Config{
		Cache:      respcache.DefaultConfig(),
		RateLimitN: rateLimitCount,
		RateLimitW: rateLimitWindow,
	}
}

// Handler wires the registry, cascade engine, aggregator, cache, and
// rate limiter together behind a single validate/limit/cache/fetch
// pipeline.
type Handler struct {
	cfg        Config
	registry   *publisherregistry.Registry
	engine     *cascade.Engine
	aggregator *aggregator.Aggregator
	cache      *respcache.Cache

	limiterAlgo  *ratelimit.SlidingWindowAlgorithm
	limiterStore ratelimit.RateLimitStore
}

// New builds a Handler. cache may be nil, in which case a fresh cache
// is constructed from cfg.Cache.
func New(cfg Config, registry *publisherregistry.Registry, engine *cascade.Engine, agg *aggregator.Aggregator, cache *respcache.Cache) *Handler {
	if cache == nil {
		cache = respcache.New(cfg.Cache)
	}
	return &Handler{
		cfg:          cfg,
		registry:     registry,
		engine:       engine,
		aggregator:   agg,
		cache:        cache,
		limiterAlgo:  ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{}),
		limiterStore: ratelimit.NewInMemoryRateLimitStore(ratelimit.DefaultInMemoryStoreConfig()),
	}
}

// Request is the caller-supplied, not-yet-validated input. Domain
// empty means "aggregate across top-priority publishers" (C12);
// Domain set means "cascade a single publisher" (C10).
type Request struct {
	Domain   string
	Topic    string
	Location string
	Days     int
	Count    int
}

// Response is what C14 hands back to either transport.
type Response struct {
	Articles   []entity.Article `json:"articles"`
	SourceUsed string            `json:"source_used"`
	DurationMs int64             `json:"duration_ms"`
	Message    string            `json:"message,omitempty"`
	Cached     bool              `json:"cached"`
}

// Handle runs the full validate -> rate-limit -> cache-check ->
// cascade/aggregate -> cache-store pipeline for req. The returned
// error, when non-nil, is always an *entity.KindedError.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	norm, err := validate(req)
	if err != nil {
		return Response{}, err
	}

	limitKey := norm.Domain
	if limitKey == "" {
		limitKey = "__aggregate__"
	}
	if err := h.checkRateLimit(ctx, limitKey); err != nil {
		return Response{}, err
	}

	var publisher entity.PublisherConfig
	if norm.Domain != "" {
		cfg, ok := h.registry.Lookup(norm.Domain)
		if !ok {
			return Response{}, entity.NewKindedError(entity.ErrKindNotConfigured, fmt.Sprintf("publisher %q is not configured", norm.Domain))
		}
		publisher = cfg
	}

	cacheKey := respcache.Key{Domain: norm.Domain, Topic: norm.Topic, Location: norm.Location, Days: norm.Days}
	if cached, ok := h.cache.Get(cacheKey); ok {
		resp := cached.(Response)
		resp.Cached = true
		resp.DurationMs = time.Since(start).Milliseconds()
		return resp, nil
	}

	var resp Response
	if norm.Domain != "" {
		result := h.engine.Run(ctx, cascade.Request{
			Publisher: publisher,
			Topic:     norm.Topic,
			Location:  norm.Location,
			Days:      norm.Days,
			Count:     norm.Count,
		})
		resp = Response{
			Articles:   result.Articles,
			SourceUsed: describeProvenance(result.Provenance),
			Message:    result.Message,
		}
	} else {
		result := h.aggregator.Run(ctx, aggregator.Request{
			Topic:    norm.Topic,
			Location: norm.Location,
			Days:     norm.Days,
			Count:    norm.Count,
		})
		resp = Response{
			Articles:   result.Articles,
			SourceUsed: "cross-publisher aggregation",
			Message:    result.Message,
		}
	}

	resp.DurationMs = time.Since(start).Milliseconds()

	if len(resp.Articles) == 0 {
		return resp, entity.NewKindedError(entity.ErrKindNoContent, "no articles found across any configured source")
	}

	h.cache.Set(cacheKey, resp)
	return resp, nil
}

// StreamDomain runs the single-publisher cascade path with a per-tier
// progress callback, for the SSE transport (GET /articles/stream).
// It shares validate/rate-limit/lookup with Handle but bypasses the
// response cache, since the point of streaming is to observe the
// cascade happen live.
func (h *Handler) StreamDomain(ctx context.Context, req Request, onTier func(cascade.Provenance)) (Response, error) {
	if strings.TrimSpace(req.Domain) == "" {
		return Response{}, entity.NewKindedError(entity.ErrKindInvalidArgument, "streaming requires a domain")
	}

	start := time.Now()
	norm, err := validate(req)
	if err != nil {
		return Response{}, err
	}

	if err := h.checkRateLimit(ctx, norm.Domain); err != nil {
		return Response{}, err
	}

	publisher, ok := h.registry.Lookup(norm.Domain)
	if !ok {
		return Response{}, entity.NewKindedError(entity.ErrKindNotConfigured, fmt.Sprintf("publisher %q is not configured", norm.Domain))
	}

	result := h.engine.Run(ctx, cascade.Request{
		Publisher: publisher,
		Topic:     norm.Topic,
		Location:  norm.Location,
		Days:      norm.Days,
		Count:     norm.Count,
		OnTier:    onTier,
	})

	resp := Response{
		Articles:   result.Articles,
		SourceUsed: describeProvenance(result.Provenance),
		Message:    result.Message,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if len(resp.Articles) == 0 {
		return resp, entity.NewKindedError(entity.ErrKindNoContent, "no articles found across any configured source")
	}
	return resp, nil
}

func (h *Handler) checkRateLimit(ctx context.Context, key string) error {
	n, w := h.cfg.RateLimitN, h.cfg.RateLimitW
	if n <= 0 {
		n = rateLimitCount
	}
	if w <= 0 {
		w = rateLimitWindow
	}

	decision, err := h.limiterAlgo.IsAllowed(ctx, key, h.limiterStore, n, w)
	if err != nil {
		return entity.NewKindedError(entity.ErrKindInternal, "rate limiter error: "+err.Error())
	}

	metrics.RecordRateLimitDecision(decision.IsAllowed())
	if decision.IsDenied() {
		return entity.NewRateLimitedError(int(decision.RetryAfterSeconds()))
	}
	return nil
}

type normalized struct {
	Domain   string
	Topic    string
	Location string
	Days     int
	Count    int
}

// validate implements spec §4.14's validation step: domain format
// (when given), lastNDays clamped into [1, 15] ("recent" cap),
// count clamped into [1, 50], and topic/location sanitized to
// lowercase, control-char-stripped short strings.
func validate(req Request) (normalized, error) {
	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if domain != "" && !relaxedDomain.MatchString(domain) {
		return normalized{}, entity.NewKindedError(entity.ErrKindInvalidArgument, fmt.Sprintf("invalid domain %q", req.Domain))
	}

	days := req.Days
	if days <= 0 {
		days = recentDaysCap
	}
	if days < minDays {
		days = minDays
	}
	if days > maxDays {
		days = maxDays
	}
	if days > recentDaysCap {
		days = recentDaysCap
	}

	count := req.Count
	if count <= 0 {
		count = cascade.DefaultConfig().DefaultCount
	}
	if count < minCount {
		count = minCount
	}
	if count > maxCount {
		count = maxCount
	}

	return normalized{
		Domain:   domain,
		Topic:    sanitize(req.Topic),
		Location: sanitize(req.Location),
		Days:     days,
		Count:    count,
	}, nil
}

func sanitize(s string) string {
	s = controlChars.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > maxSanitizedLen {
		s = s[:maxSanitizedLen]
	}
	return s
}

// describeProvenance renders a cascade Provenance slice into the
// human-readable sourceUsed string spec §4.14 calls for.
func describeProvenance(provenance []cascade.Provenance) string {
	if len(provenance) == 0 {
		return "no source"
	}
	parts := make([]string, 0, len(provenance))
	for _, p := range provenance {
		for sourceType, count := range p.Counts {
			parts = append(parts, fmt.Sprintf("tier %d:%s(%d)", p.Rank, sourceType, count))
		}
	}
	return strings.Join(parts, ", ")
}

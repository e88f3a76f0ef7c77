// Package cascade implements the priority-tier cascade engine
// (component C10), the central algorithm of the system: fetch a
// publisher's sources tier by tier in parallel, dedup and filter as
// each tier completes, and stop early once enough articles have been
// kept.
package cascade

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"newsnexus/internal/deepscraper"
	"newsnexus/internal/dateparse"
	"newsnexus/internal/domain/entity"
	"newsnexus/internal/feedparse"
	"newsnexus/internal/filterdedup"
	"newsnexus/internal/httpclient"
	"newsnexus/internal/listingscraper"
	"newsnexus/internal/observability/metrics"
)

// Config tunes the deadlines and defaults of one Engine, per spec
// §4.10 and §5.
type Config struct {
	TierDeadline        time.Duration
	DefaultSourceTimeout time.Duration
	OuterDeadline       time.Duration
	DefaultCount        int
	DefaultDays         int
	MaxDays             int
}

// DefaultConfig returns the spec's default cascade tuning.
func DefaultConfig() Config {
	return Config{
		TierDeadline:         5 * time.Second,
		DefaultSourceTimeout: 3 * time.Second,
		OuterDeadline:        10 * time.Second,
		DefaultCount:         8,
		DefaultDays:          10,
		MaxDays:              15,
	}
}

// Engine runs the cascade for one publisher at a time. One Engine is
// shared across requests; all of its dependencies are safe for
// concurrent use.
type Engine struct {
	cfg          Config
	cascadeHTTP  *httpclient.Client
	deepScraper  *deepscraper.Scraper
	dates        *dateparse.Parser
	feeds        *feedparse.Parser
}

// New builds an Engine. cascadeHTTP is used for tier fetches (feeds
// and listing pages); deep is used only for the scraper-type
// enrichment pass (C8).
func New(cfg Config, cascadeHTTP *httpclient.Client, deep *deepscraper.Scraper) *Engine {
	dates := dateparse.New()
	return &Engine{
		cfg:         cfg,
		cascadeHTTP: cascadeHTTP,
		deepScraper: deep,
		dates:       dates,
		feeds:       feedparse.New(dates),
	}
}

// Request bundles one cascade invocation's parameters.
type Request struct {
	Publisher entity.PublisherConfig
	Topic     string
	Location  string
	Days      int
	Count     int
	FastPath  bool // collapse to official feed + aggregator fallback only (used by C12)
	Dedup     *filterdedup.Dedup

	// OnTier, if set, is invoked synchronously after each tier's
	// fetch+filter pass completes, before the next tier starts. Used
	// by the SSE transport to stream per-tier provenance as it
	// happens; nil is the common case and adds no overhead.
	OnTier func(Provenance)
}

// Provenance records, per tier rank, which source types contributed
// how many articles that survived filtering.
type Provenance struct {
	Rank    int
	Counts  map[entity.SourceType]int
}

// Result is the outcome of one cascade invocation.
type Result struct {
	Articles   []entity.Article
	Provenance []Provenance
	Message    string
}

// Run executes the cascade for req.Publisher: tier-parallel fetch,
// per-tier dedup+filter, early termination, final sort+trim.
func (e *Engine) Run(ctx context.Context, req Request) Result {
	count := req.Count
	if count <= 0 {
		count = e.cfg.DefaultCount
	}
	if count > 50 {
		count = 50
	}
	days := req.Days
	if days <= 0 {
		days = e.cfg.DefaultDays
	}
	if days > e.cfg.MaxDays {
		days = e.cfg.MaxDays
	}

	dedup := req.Dedup
	if dedup == nil {
		dedup = filterdedup.NewDedup()
	}

	tiers := req.Publisher.Tiers()
	if req.FastPath {
		tiers = fastPathTiers(tiers)
	}

	outerCtx, cancel := context.WithTimeout(ctx, e.cfg.OuterDeadline)
	defer cancel()

	var kept []entity.Article
	var provenance []Provenance

	for _, tier := range tiers {
		start := time.Now()
		fetched := e.fetchTier(outerCtx, req.Publisher.Domain, tier)
		metrics.RecordCascadeTier(req.Publisher.Domain, tier.Rank, time.Since(start))

		filtered := filterdedup.Apply(fetched, filterdedup.Params{
			Topic:    req.Topic,
			Location: req.Location,
			Days:     days,
			Now:      time.Now().UTC(),
			MaxCount: 0, // cap applied once at the very end
		}, dedup)

		counts := make(map[entity.SourceType]int)
		for range filtered {
			counts[dominantSourceType(tier)]++
		}
		tierProvenance := Provenance{Rank: tier.Rank, Counts: counts}
		provenance = append(provenance, tierProvenance)
		if req.OnTier != nil {
			req.OnTier(tierProvenance)
		}

		kept = append(kept, filtered...)

		if len(kept) >= count {
			break
		}
		if outerCtx.Err() != nil {
			break
		}
	}

	sortByDateDescending(kept)

	message := ""
	switch {
	case len(kept) == 0:
		message = "no articles found"
	case len(kept) < count:
		message = "found fewer articles than requested"
	}

	if len(kept) > count {
		kept = kept[:count]
	}

	return Result{Articles: kept, Provenance: provenance, Message: message}
}

// fastPathTiers collapses a publisher's tiers to just its highest-
// priority official feed (if any) plus an aggregator-feed fallback,
// per spec §4.10's fast-path parameter (used by the cross-publisher
// aggregator, C12, which trades thoroughness for breadth).
func fastPathTiers(tiers []entity.SourceTier) []entity.SourceTier {
	var official, aggregator []entity.PublisherSource
	for _, tier := range tiers {
		for _, s := range tier.Sources {
			switch s.Type {
			case entity.SourceOfficialFeed:
				official = append(official, s)
			case entity.SourceAggregator:
				aggregator = append(aggregator, s)
			}
		}
		if len(official) > 0 {
			break
		}
	}

	var out []entity.SourceTier
	if len(official) > 0 {
		out = append(out, entity.SourceTier{Rank: 0, Sources: official})
	}
	if len(aggregator) > 0 {
		out = append(out, entity.SourceTier{Rank: 1, Sources: aggregator})
	}
	if len(out) == 0 {
		return tiers
	}
	return out
}

// dominantSourceType attributes a tier's survivors to a single source
// type for provenance reporting. A tier fetch doesn't individually tag
// which source produced each article, so mixed-type tiers attribute to
// the tier's first source.
func dominantSourceType(tier entity.SourceTier) entity.SourceType {
	if len(tier.Sources) > 0 {
		return tier.Sources[0].Type
	}
	return ""
}

// fetchTier fetches and parses every source in tier concurrently,
// bounded by the tier deadline, and returns whatever articles were
// collected before the deadline or all sources completed.
func (e *Engine) fetchTier(ctx context.Context, domain string, tier entity.SourceTier) []entity.Article {
	tierCtx, cancel := context.WithTimeout(ctx, e.cfg.TierDeadline)
	defer cancel()

	g, gctx := errgroup.WithContext(tierCtx)
	results := make([][]entity.Article, len(tier.Sources))

	for i, source := range tier.Sources {
		i, source := i, source
		g.Go(func() error {
			articles := e.fetchSource(gctx, domain, source)
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait() // sources never fail the group; a failed source just yields nil

	var all []entity.Article
	for i, articles := range results {
		all = append(all, articles...)
		if len(articles) > 0 {
			metrics.RecordArticlesFetched(domain, string(tier.Sources[i].Type), len(articles))
		}
	}
	return all
}

// fetchSource fetches and parses one source, deep-scraping the result
// when it is scraper-typed. Every failure is swallowed and logged via
// metrics; the cascade tolerates partial per-source failure by design.
func (e *Engine) fetchSource(ctx context.Context, domain string, source entity.PublisherSource) []entity.Article {
	timeout := e.cfg.DefaultSourceTimeout
	if source.TimeoutMs > 0 {
		timeout = time.Duration(source.TimeoutMs) * time.Millisecond
	}
	sourceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := e.cascadeHTTP.Get(sourceCtx, source.URL)
	if err != nil {
		return nil
	}

	var articles []entity.Article
	switch source.Type {
	case entity.SourceOfficialFeed, entity.SourceFeedProxy, entity.SourceAggregator:
		parsed, parseErr := e.feeds.Parse(sourceCtx, result.Body, domain)
		if parseErr != nil {
			return nil
		}
		articles = parsed
	case entity.SourceScraper:
		scraped, scrapeErr := listingscraper.Scrape(result.Body, source.URL, domain, e.dates)
		if scrapeErr != nil {
			return nil
		}
		if e.deepScraper != nil {
			scraped = e.deepScraper.Enrich(sourceCtx, scraped)
		}
		articles = scraped
	}

	return articles
}

func sortByDateDescending(articles []entity.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		ai, aj := articles[i].PublishedAt, articles[j].PublishedAt
		if ai.IsZero() != aj.IsZero() {
			return !ai.IsZero()
		}
		return ai.After(aj)
	})
}

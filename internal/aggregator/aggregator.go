// Package aggregator implements the cross-publisher aggregator
// (component C12): fan out to the top-priority publishers in
// parallel, each via the cascade engine's fast path, then merge, sort,
// and trim the combined result. It also implements the supplemented
// two-phase priority/non-priority fallback strategy.
package aggregator

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"newsnexus/internal/cascade"
	"newsnexus/internal/domain/entity"
	"newsnexus/internal/filterdedup"
	"newsnexus/internal/observability/metrics"
	"newsnexus/internal/publisherregistry"
)

// Config tunes one Aggregator, per spec §4.12.
type Config struct {
	MaxPriorityPublishers int
	Workers               int
	OuterDeadline         time.Duration
	PerPublisherDeadline  time.Duration
}

// DefaultConfig returns the spec's default aggregator tuning.
func DefaultConfig() Config {
	return Config{
		MaxPriorityPublishers: 12,
		Workers:               4,
		OuterDeadline:         15 * time.Second,
		PerPublisherDeadline:  5 * time.Second,
	}
}

// Aggregator fans out cascade.Engine.Run across a publisher registry's
// top-priority entries.
type Aggregator struct {
	cfg      Config
	engine   *cascade.Engine
	registry *publisherregistry.Registry
}

// New builds an Aggregator over registry, using engine in fast-path
// mode for every publisher it fans out to.
func New(cfg Config, engine *cascade.Engine, registry *publisherregistry.Registry) *Aggregator {
	return &Aggregator{cfg: cfg, engine: engine, registry: registry}
}

// Request bundles one cross-publisher aggregation's parameters.
type Request struct {
	Topic    string
	Location string
	Days     int
	Count    int
}

// Result is the merged, trimmed outcome of one aggregation run.
type Result struct {
	Articles []entity.Article
	Message  string
}

// Run selects the top MaxPriorityPublishers publishers by ascending
// priority, fans out to them in parallel (Workers at a time), and
// merges/sorts/trims the combined survivors to Count.
func (ag *Aggregator) Run(ctx context.Context, req Request) Result {
	start := time.Now()
	defer func() { metrics.RecordAggregatorRun(time.Since(start)) }()

	publishers := topPriorityPublishers(ag.registry.All(), ag.cfg.MaxPriorityPublishers)
	count := req.Count
	if count <= 0 {
		count = cascade.DefaultConfig().DefaultCount
	}

	outerCtx, cancel := context.WithTimeout(ctx, ag.cfg.OuterDeadline)
	defer cancel()

	dedup := filterdedup.NewDedup()
	merged := ag.fanOut(outerCtx, publishers, req, dedup, count)

	sortByDateDescending(merged)
	message := ""
	if len(merged) == 0 {
		message = "no articles found"
	} else if len(merged) < count {
		message = "found fewer articles than requested"
	}
	if len(merged) > count {
		merged = merged[:count]
	}

	return Result{Articles: stripInternalFields(merged), Message: message}
}

// RunWithFallback implements the supplemented priority/non-priority
// two-phase strategy from the original fallback tooling: exhaust the
// priority publisher list first, and only fan out to nonPriority
// publishers when the priority phase came up short.
func (ag *Aggregator) RunWithFallback(ctx context.Context, req Request, nonPriority []entity.PublisherConfig) Result {
	primary := ag.Run(ctx, req)
	if len(primary.Articles) >= req.Count || len(nonPriority) == 0 {
		return primary
	}

	needed := req.Count - len(primary.Articles)
	outerCtx, cancel := context.WithTimeout(ctx, ag.cfg.OuterDeadline)
	defer cancel()

	dedup := filterdedup.NewDedup()
	for _, a := range primary.Articles {
		dedup.Admit(a)
	}

	fallback := ag.fanOut(outerCtx, nonPriority, Request{
		Topic:    req.Topic,
		Location: req.Location,
		Days:     req.Days,
		Count:    needed,
	}, dedup, needed)

	merged := append(append([]entity.Article(nil), primary.Articles...), fallback...)
	sortByDateDescending(merged)
	if len(merged) > req.Count {
		merged = merged[:req.Count]
	}

	message := ""
	if len(merged) == 0 {
		message = "no articles found"
	} else if len(merged) < req.Count {
		message = "found fewer articles than requested"
	}
	return Result{Articles: stripInternalFields(merged), Message: message}
}

func (ag *Aggregator) fanOut(ctx context.Context, publishers []entity.PublisherConfig, req Request, dedup *filterdedup.Dedup, count int) []entity.Article {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ag.cfg.Workers)

	results := make([][]entity.Article, len(publishers))
	for i, publisher := range publishers {
		i, publisher := i, publisher
		g.Go(func() error {
			pubCtx, cancel := context.WithTimeout(gctx, ag.cfg.PerPublisherDeadline)
			defer cancel()

			res := ag.engine.Run(pubCtx, cascade.Request{
				Publisher: publisher,
				Topic:     req.Topic,
				Location:  req.Location,
				Days:      req.Days,
				Count:     count,
				FastPath:  true,
				Dedup:     dedup,
			})
			results[i] = res.Articles
			return nil
		})
	}
	_ = g.Wait()

	var merged []entity.Article
	for _, articles := range results {
		merged = append(merged, articles...)
	}
	return merged
}

// topPriorityPublishers selects publishers with an integer priority in
// [1, max], sorted ascending, taking the top max. Publishers with no
// priority set (zero value) are excluded, per spec §4.12 step 1.
func topPriorityPublishers(all []entity.PublisherConfig, max int) []entity.PublisherConfig {
	var eligible []entity.PublisherConfig
	for _, p := range all {
		if p.Priority >= 1 && p.Priority <= max {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Priority < eligible[j].Priority })
	if len(eligible) > max {
		eligible = eligible[:max]
	}
	return eligible
}

// stripInternalFields returns a defensive copy with any field that
// exists only for the cascade's own bookkeeping cleared before the
// result crosses the transport boundary. entity.Article currently
// carries no such field (every field is caller-facing), so this is a
// copy today and the natural place to add a clear() call if one is
// introduced later.
func stripInternalFields(articles []entity.Article) []entity.Article {
	out := make([]entity.Article, len(articles))
	copy(out, articles)
	return out
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

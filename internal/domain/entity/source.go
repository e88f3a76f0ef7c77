package entity

import (
	"errors"
	"fmt"
)

// SourceType is a tagged enum over the four ways a publisher's articles
// can be obtained, in priority order of assumed quality.
type SourceType string

const (
	SourceOfficialFeed  SourceType = "official_feed"
	SourceFeedProxy     SourceType = "feed_proxy"
	SourceAggregator    SourceType = "aggregator_feed"
	SourceScraper       SourceType = "scraper"
)

func (t SourceType) valid() bool {
	switch t {
	case SourceOfficialFeed, SourceFeedProxy, SourceAggregator, SourceScraper:
		return true
	default:
		return false
	}
}

// PublisherSource is one row in a publisher's source list: how to fetch,
// its in-publisher priority rank (lower is earlier, equal ranks form a
// parallel tier), and an optional per-source timeout override.
type PublisherSource struct {
	Type      SourceType `json:"type"`
	URL       string     `json:"url"`
	Priority  int        `json:"priority"`
	TimeoutMs int        `json:"timeout_ms,omitempty"`
}

// PublisherConfig is the immutable, load-once configuration for a single
// news publisher: its canonical domain, optional cross-publisher rank,
// and its ordered set of sources.
type PublisherConfig struct {
	Domain   string            `json:"domain"`
	Priority int               `json:"priority,omitempty"`
	Sources  []PublisherSource `json:"sources"`
}

// Validate checks the invariants required by the publisher registry and
// cascade engine: a domain, at least one source, and only known source
// types.
func (p *PublisherConfig) Validate() error {
	if p.Domain == "" {
		return errors.New("publisher domain is required")
	}
	if len(p.Sources) == 0 {
		return fmt.Errorf("publisher %q must declare at least one source", p.Domain)
	}
	for i, s := range p.Sources {
		if !s.Type.valid() {
			return fmt.Errorf("publisher %q source[%d]: invalid type %q", p.Domain, i, s.Type)
		}
		if s.URL == "" {
			return fmt.Errorf("publisher %q source[%d]: url is required", p.Domain, i)
		}
	}
	return nil
}

// Tiers groups sources by priority rank, ascending.
func (p *PublisherConfig) Tiers() []SourceTier {
	byRank := make(map[int][]PublisherSource)
	for _, s := range p.Sources {
		byRank[s.Priority] = append(byRank[s.Priority], s)
	}
	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	for i := 1; i < len(ranks); i++ {
		for j := i; j > 0 && ranks[j-1] > ranks[j]; j-- {
			ranks[j-1], ranks[j] = ranks[j], ranks[j-1]
		}
	}
	tiers := make([]SourceTier, 0, len(ranks))
	for _, r := range ranks {
		tiers = append(tiers, SourceTier{Rank: r, Sources: byRank[r]})
	}
	return tiers
}

// SourceTier is the set of sources sharing one in-publisher priority
// rank, fetched in parallel by the cascade engine.
type SourceTier struct {
	Rank    int
	Sources []PublisherSource
}

// Package dateparse implements the date parser (spec component C5):
// an ordered sequence of format patterns, a permissive fallback via
// araddon/dateparse, always normalized to UTC, and memoized on the
// raw input string.
package dateparse

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"newsnexus/internal/lru"
)

// memoCapacity bounds the memoization cache; this is hot, called for
// every feed/scraper entry.
const memoCapacity = 1000

// formats is the ordered list of patterns tried before the permissive
// fallback. Order matters: more specific/common formats come first so
// ambiguous inputs resolve the way real-world feeds expect. Preserve
// all entries; the list is load-bearing for existing feed fixtures.
var formats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"January 2, 2006",
	"January 2, 2006 15:04",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006/01/02",
}

// Parser memoizes parse results keyed on the raw input string.
type Parser struct {
	cache *lru.Cache[string, parseResult]
}

type parseResult struct {
	t  time.Time
	ok bool
}

// New returns a Parser with the default memoization bound.
func New() *Parser {
	return &Parser{cache: lru.New[string, parseResult](memoCapacity)}
}

// Parse attempts each pattern in formats in order, then falls back to
// dateparse.ParseAny. The result is always normalized to UTC. The
// second return value is false when no pattern matched.
func (p *Parser) Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if cached, ok := p.cache.Get(raw); ok {
		return cached.t, cached.ok
	}

	t, ok := parse(raw)
	p.cache.Put(raw, parseResult{t: t, ok: ok})
	return t, ok
}

func parse(raw string) (time.Time, bool) {
	for _, layout := range formats {
		if t, err := time.Parse(layout, raw); err == nil {
			return normalizeUTC(t), true
		}
	}

	if t, err := dateparse.ParseAny(raw); err == nil {
		return normalizeUTC(t), true
	}

	return time.Time{}, false
}

// normalizeUTC converts t to UTC, assuming UTC when the parsed value
// carries no zone offset (time.Parse defaults such inputs to UTC
// already, so this is primarily a converter for other zones).
func normalizeUTC(t time.Time) time.Time {
	return t.UTC()
}

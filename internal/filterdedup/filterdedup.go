// Package filterdedup implements the topic/location/date filter and
// the URL/title deduplicator (spec component C9). It is pure CPU: no
// network or disk I/O, safe to call from any goroutine.
package filterdedup

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"newsnexus/internal/domain/entity"
	"newsnexus/internal/topicdict"
)

// Params bundles the filter parameters of a single caller request.
type Params struct {
	Topic    string // already lowercased by the request handler; "" or "general" disables topic filtering
	Location string
	Days     int // drop articles older than this many days; 0 disables the date filter
	Now      time.Time
	MaxCount int
}

// Dedup accumulates fingerprints seen across an entire caller
// aggregation — per spec, dedup state is not reset per source within
// one cascade invocation, so a Dedup is created once per top-level
// request (get_articles or the cross-publisher aggregator) and reused
// across every tier/source/publisher it processes.
type Dedup struct {
	mu   sync.Mutex
	seen map[entity.ArticleFingerprint]struct{}
}

// NewDedup returns an empty deduplicator.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[entity.ArticleFingerprint]struct{})}
}

// Admit reports whether the article is new (not seen before) and, if
// so, marks its fingerprint as seen. Safe for concurrent use.
func (d *Dedup) Admit(a entity.Article) bool {
	fp := a.Fingerprint()
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.seen[fp]; dup {
		return false
	}
	d.seen[fp] = struct{}{}
	return true
}

// wordBoundaryCache memoizes the compiled regex for a keyword so
// repeated filter calls against the same topic dictionary entries
// don't recompile thousands of regexes per request.
var (
	reCacheMu sync.RWMutex
	reCache   = make(map[string]*regexp.Regexp)
)

func wordBoundary(keyword string) *regexp.Regexp {
	reCacheMu.RLock()
	re, ok := reCache[keyword]
	reCacheMu.RUnlock()
	if ok {
		return re
	}
	re = regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	reCacheMu.Lock()
	reCache[keyword] = re
	reCacheMu.Unlock()
	return re
}

func matchesAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if wordBoundary(kw).MatchString(text) {
			return true
		}
	}
	return false
}

func searchableText(a entity.Article) string {
	tags := strings.Join(a.Tags, " ")
	return strings.ToLower(a.Title + " " + a.Summary + " " + tags)
}

func passesTopic(a entity.Article, topic string) bool {
	if topic == "" || topicdict.IsGeneral(topic) {
		return true
	}
	canon, ok := topicdict.Resolve(topic)
	if !ok {
		// Unknown topic: nothing can match it, so nothing passes.
		return false
	}
	text := searchableText(a)
	keywords := topicdict.ExpandKeywords(canon)
	if !matchesAnyKeyword(text, keywords) {
		return false
	}
	return !matchesAnyKeyword(text, topicdict.Exclude)
}

func passesLocation(a entity.Article, location string) bool {
	if location == "" {
		return true
	}
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "india" || loc == "in" {
		if topicdict.IsIndianPublisher(a.SourceDomain) {
			return true
		}
	}
	return wordBoundary(loc).MatchString(searchableText(a))
}

func passesDate(a entity.Article, days int, now time.Time) bool {
	if days <= 0 {
		return true
	}
	if a.PublishedAt.IsZero() {
		return true
	}
	return now.Sub(a.PublishedAt) <= time.Duration(days)*24*time.Hour
}

// Apply runs the full single-pass filter/dedup algorithm over
// articles, in the order spec.md §4.9 describes: dedup, topic,
// location, date, sort, cap. dedup is the caller-scoped deduplicator
// (shared across tiers/sources/publishers within one request).
func Apply(articles []entity.Article, params Params, dedup *Dedup) []entity.Article {
	if params.Now.IsZero() {
		params.Now = time.Now().UTC()
	}

	survivors := make([]entity.Article, 0, len(articles))
	for _, a := range articles {
		if !dedup.Admit(a) {
			continue
		}
		if !passesTopic(a, params.Topic) {
			continue
		}
		if !passesLocation(a, params.Location) {
			continue
		}
		if !passesDate(a, params.Days, params.Now) {
			continue
		}
		survivors = append(survivors, a)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		ai, aj := survivors[i].PublishedAt, survivors[j].PublishedAt
		if ai.IsZero() != aj.IsZero() {
			return !ai.IsZero() // non-zero sorts before zero
		}
		return ai.After(aj)
	})

	if params.MaxCount > 0 && len(survivors) > params.MaxCount {
		survivors = survivors[:params.MaxCount]
	}
	return survivors
}

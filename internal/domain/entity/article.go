// Package entity defines the core domain entities for the news cascade
// aggregator: articles, publisher configuration, and the values the
// cache and fingerprint layers operate on.
package entity

import (
	"strings"
	"time"
)

// Article represents a single news item surfaced by the cascade engine,
// independent of which tier (official feed, feed proxy, aggregator
// feed, scraper) produced it.
type Article struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	PublishedAt   time.Time `json:"published_at"`
	Summary       string    `json:"summary,omitempty"`
	Author        string    `json:"author,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	SourceDomain  string    `json:"source_domain"`
	FullContent   string    `json:"full_content,omitempty"`
	ContentLength int       `json:"content_length,omitempty"`
}

// Fingerprint returns the dedup key for this article: the normalized
// URL when present, otherwise a domain+title composite.
func (a Article) Fingerprint() ArticleFingerprint {
	if a.URL != "" {
		return ArticleFingerprint{Key: normalizeURLKey(a.URL)}
	}
	return ArticleFingerprint{Key: a.SourceDomain + "|" + normalizeTitleKey(a.Title)}
}

// ArticleFingerprint is the comparable key used by the in-memory
// deduplicator. It never leaves the process and is never persisted.
type ArticleFingerprint struct {
	Key string
}

func normalizeURLKey(rawURL string) string {
	key := strings.ToLower(strings.TrimSpace(rawURL))
	key = strings.TrimSuffix(key, "/")
	return key
}

func normalizeTitleKey(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

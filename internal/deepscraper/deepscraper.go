// Package deepscraper implements the deep scraper (component C8):
// per-article-URL enrichment that fetches each page and extracts main
// content, a short summary, and date/author, run over a bounded
// worker pool with per-article and whole-batch deadlines.
package deepscraper

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"newsnexus/internal/dateparse"
	"newsnexus/internal/domain/entity"
	"newsnexus/internal/httpclient"
)

// Config tunes one batch enrichment run, per spec §4.8.
type Config struct {
	MaxArticles       int
	ParallelWorkers   int
	PerArticleTimeout time.Duration
	BatchDeadline     time.Duration
	Retries           int
}

// DefaultConfig returns the spec's default deep-scrape tuning.
func DefaultConfig() Config {
	return Config{
		MaxArticles:       10,
		ParallelWorkers:   5,
		PerArticleTimeout: 2 * time.Second,
		BatchDeadline:     30 * time.Second,
		Retries:           1,
	}
}

// Scraper enriches scraper-sourced articles with full content.
type Scraper struct {
	client *httpclient.Client
	cfg    Config
	dates  *dateparse.Parser
}

// New builds a Scraper using client for fetches (typically one built
// from httpclient.DefaultDeepScrapeConfig) and dates for date-text
// parsing. dates defaults to dateparse.New() when nil.
func New(client *httpclient.Client, cfg Config, dates *dateparse.Parser) *Scraper {
	if dates == nil {
		dates = dateparse.New()
	}
	return &Scraper{client: client, cfg: cfg, dates: dates}
}

// Enrich attempts to deep-scrape up to cfg.MaxArticles of the given
// articles (in order), returning a new slice the same length as the
// input. Articles beyond the cap, and any that fail to enrich within
// their deadline, are returned unchanged. The whole call is bounded by
// cfg.BatchDeadline; outstanding fetches are abandoned, not joined,
// once it elapses.
func (s *Scraper) Enrich(ctx context.Context, articles []entity.Article) []entity.Article {
	out := make([]entity.Article, len(articles))
	copy(out, articles)

	limit := s.cfg.MaxArticles
	if limit > len(out) {
		limit = len(out)
	}
	if limit <= 0 {
		return out
	}

	batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchDeadline)
	defer cancel()

	sem := make(chan struct{}, s.cfg.ParallelWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < limit; i++ {
		i := i
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			enriched, ok := s.enrichOne(batchCtx, out[i])
			if !ok {
				return
			}
			mu.Lock()
			out[i] = enriched
			mu.Unlock()
		}()
	}
	wg.Wait()

	return out
}

func (s *Scraper) enrichOne(ctx context.Context, article entity.Article) (entity.Article, bool) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, s.cfg.PerArticleTimeout)
		result, err := s.client.Get(reqCtx, article.URL)
		cancel()
		if err == nil {
			extracted, ok := extract(result.Body, article.URL, s.dates)
			if !ok {
				return article, false
			}
			article.FullContent = extracted.content
			article.ContentLength = len(extracted.content)
			if extracted.summary != "" {
				article.Summary = extracted.summary
			}
			if extracted.author != "" {
				article.Author = extracted.author
			}
			if !extracted.publishedAt.IsZero() {
				article.PublishedAt = extracted.publishedAt
			}
			return article, true
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	_ = lastErr
	return article, false
}

type extraction struct {
	content     string
	summary     string
	author      string
	publishedAt time.Time
}

const minReadableContentLen = 100

// extract pulls main content, a short summary, and date/author out of
// a fetched article page: go-readability first, falling back to
// selector-based extraction when readability yields too little.
func extract(body []byte, pageURL string, dates *dateparse.Parser) (extraction, bool) {
	parsed, _ := url.Parse(pageURL)

	var content, author string
	var publishedAt time.Time

	if art, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
		content = strings.TrimSpace(art.TextContent)
		if content == "" {
			content = strings.TrimSpace(stripTags(art.Content))
		}
		author = strings.TrimSpace(art.Byline)
		if art.PublishedTime != nil {
			publishedAt = art.PublishedTime.UTC()
		}
	}

	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if docErr != nil {
		if len(content) < minReadableContentLen {
			return extraction{}, false
		}
		return extraction{content: content, author: author, publishedAt: publishedAt, summary: buildSummary(content)}, true
	}

	if len(content) < minReadableContentLen {
		content = selectorFallbackContent(doc)
	}
	if len(content) < minReadableContentLen {
		return extraction{}, false
	}

	if author == "" {
		author = jsonLDAuthor(doc)
	}
	if author == "" {
		author = metaAuthor(doc)
	}
	if author == "" {
		author = selectorAuthor(doc)
	}

	if publishedAt.IsZero() {
		if raw := jsonLDDate(doc); raw != "" {
			if t, ok := dates.Parse(raw); ok {
				publishedAt = t
			}
		}
	}
	if publishedAt.IsZero() {
		if raw := metaDate(doc); raw != "" {
			if t, ok := dates.Parse(raw); ok {
				publishedAt = t
			}
		}
	}
	if publishedAt.IsZero() {
		if raw := selectorDate(doc); raw != "" {
			if t, ok := dates.Parse(raw); ok {
				publishedAt = t
			}
		}
	}

	return extraction{
		content:     content,
		author:      author,
		publishedAt: publishedAt,
		summary:     buildSummary(content),
	}, true
}

// contentSelectors mirror spec §4.8's structured-selector list.
var contentSelectors = []string{
	`article`,
	`[itemprop="articleBody"]`,
	`[class*="article-body"]`,
	`[class*="article-content"]`,
	`[class*="post-content"]`,
	`.entry-content`,
	`main`,
}

var stripFromContentSelectors = []string{
	"nav", "aside", "footer", "script", "style", "noscript",
	".sidebar", ".comments", ".social", ".share", ".ad", "[class*=\"ad-\"]", "[class*=\"advert\"]",
}

const minParagraphLen = 30

func selectorFallbackContent(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		clone := container.Clone()
		for _, strip := range stripFromContentSelectors {
			clone.Find(strip).Remove()
		}

		var paragraphs []string
		clone.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if len(text) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		joined := strings.Join(paragraphs, "\n\n")
		if len(joined) >= minReadableContentLen {
			return joined
		}

		full := strings.TrimSpace(clone.Text())
		if len(full) >= minReadableContentLen {
			return full
		}
	}
	return ""
}

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

var junkPhrases = []string{
	"click here", "subscribe", "cookie policy", "sign up", "read more", "advertisement",
}

const maxSummaryLen = 500
const minSentenceLen = 20

// buildSummary takes the first meaningful sentences of content, up to
// maxSummaryLen chars, skipping short sentences and junk phrases.
func buildSummary(content string) string {
	sentences := sentenceSplit.Split(content, -1)
	var out strings.Builder
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(s) < minSentenceLen {
			continue
		}
		if containsJunkPhrase(s) {
			continue
		}
		if out.Len() > 0 {
			out.WriteString(". ")
		}
		out.WriteString(s)
		if out.Len() >= maxSummaryLen {
			break
		}
	}
	summary := out.String()
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen]
	}
	return summary
}

func containsJunkPhrase(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range junkPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func stripTags(html string) string {
	return tagStripper.ReplaceAllString(html, " ")
}

var tagStripper = regexp.MustCompile(`<[^>]+>`)

// jsonLDEntry is the subset of schema.org Article/NewsArticle fields
// deep-scrape cares about.
type jsonLDEntry struct {
	Type          string      `json:"@type"`
	DatePublished string      `json:"datePublished"`
	Author        interface{} `json:"author"`
}

func jsonLDDate(doc *goquery.Document) string {
	return firstJSONLD(doc, func(e jsonLDEntry) string { return e.DatePublished })
}

func jsonLDAuthor(doc *goquery.Document) string {
	return firstJSONLD(doc, func(e jsonLDEntry) string { return authorName(e.Author) })
}

func firstJSONLD(doc *goquery.Document, pick func(jsonLDEntry) string) string {
	var result string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := sel.Text()

		var entry jsonLDEntry
		if err := json.Unmarshal([]byte(raw), &entry); err == nil {
			if v := pick(entry); v != "" {
				result = v
				return false
			}
		}

		var entries []jsonLDEntry
		if err := json.Unmarshal([]byte(raw), &entries); err == nil {
			for _, e := range entries {
				if v := pick(e); v != "" {
					result = v
					return false
				}
			}
		}
		return true
	})
	return result
}

func authorName(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]interface{}:
		if name, ok := v["name"].(string); ok {
			return name
		}
	case []interface{}:
		for _, item := range v {
			if name := authorName(item); name != "" {
				return name
			}
		}
	}
	return ""
}

func metaDate(doc *goquery.Document) string {
	for _, sel := range []string{
		`meta[property="article:published_time"]`,
		`meta[name="article:published_time"]`,
		`meta[property="og:article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="publish-date"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

func metaAuthor(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="author"]`, `meta[property="article:author"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

var deepScrapeDateSelectors = []string{"time[datetime]", "time", ".date", ".published", "[class*=date]"}
var deepScrapeAuthorSelectors = []string{".author", "[class*=author]", "[rel=author]"}

func selectorDate(doc *goquery.Document) string {
	for _, sel := range deepScrapeDateSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if datetime, ok := node.Attr("datetime"); ok && strings.TrimSpace(datetime) != "" {
			return strings.TrimSpace(datetime)
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

func selectorAuthor(doc *goquery.Document) string {
	for _, sel := range deepScrapeAuthorSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

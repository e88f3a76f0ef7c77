// Package feedparse implements the feed parser (component C6): turns
// raw RSS/Atom bytes into a bounded list of Articles.
package feedparse

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsnexus/internal/dateparse"
	"newsnexus/internal/domain/entity"
)

// MaxArticlesPerRequest bounds how many entries one feed parse
// returns, per spec §4.6.
const MaxArticlesPerRequest = 50

const maxSummaryLen = 1000
const maxTags = 5

// Parser parses feed bytes into Articles. Stateless aside from the
// shared date parser's memoization cache.
type Parser struct {
	dates *dateparse.Parser
}

// New returns a Parser. dates may be shared across parsers/packages
// so the memoization cache amortizes across the whole cascade run.
func New(dates *dateparse.Parser) *Parser {
	if dates == nil {
		dates = dateparse.New()
	}
	return &Parser{dates: dates}
}

var tagStripper = regexp.MustCompile(`<[^>]+>`)
var whitespaceRun = regexp.MustCompile(`\s+`)

func sanitizeSummary(raw string) string {
	stripped := tagStripper.ReplaceAllString(raw, " ")
	collapsed := strings.TrimSpace(whitespaceRun.ReplaceAllString(stripped, " "))
	if len(collapsed) > maxSummaryLen {
		return collapsed[:maxSummaryLen]
	}
	return collapsed
}

// Parse decodes raw feed bytes associated with sourceDomain. Malformed
// entries (missing title or link) are skipped silently; a fully
// unparseable document returns a parse-kind KindedError.
func (p *Parser) Parse(ctx context.Context, raw []byte, sourceDomain string) ([]entity.Article, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseWithContext(strings.NewReader(string(raw)), ctx)
	if err != nil {
		return nil, entity.NewKindedError(entity.ErrKindParseError, "parse feed: "+err.Error())
	}

	articles := make([]entity.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		if err := entity.ValidateURL(item.Link); err != nil {
			continue
		}

		articles = append(articles, entity.Article{
			Title:        item.Title,
			URL:          item.Link,
			PublishedAt:  p.publishedAt(item),
			Summary:      sanitizeSummary(firstNonEmpty(item.Description, item.Content)),
			Author:       authorOf(item),
			Tags:         tagsOf(item),
			SourceDomain: sourceDomain,
		})

		if len(articles) >= MaxArticlesPerRequest {
			break
		}
	}

	return articles, nil
}

// publishedAt prefers gofeed's already-structured parsed-time fields
// over re-parsing the raw date strings, falling through
// published → updated per spec §4.6. Returns the zero time when none
// of the fields parse, so the article sorts last downstream.
func (p *Parser) publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if t, ok := p.dates.Parse(raw); ok {
			return t
		}
	}
	return time.Time{}
}

func authorOf(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	return ""
}

func tagsOf(item *gofeed.Item) []string {
	if len(item.Categories) == 0 {
		return nil
	}
	n := len(item.Categories)
	if n > maxTags {
		n = maxTags
	}
	return append([]string(nil), item.Categories[:n]...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

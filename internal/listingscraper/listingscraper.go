// Package listingscraper implements the listing scraper (component
// C7): extracts candidate articles from a publisher's HTML listing
// page using a semantic-selector pass, falling back to a headline
// scan when the semantic pass comes up short.
package listingscraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsnexus/internal/dateparse"
	"newsnexus/internal/domain/entity"
)

// MaxArticlesPerRequest mirrors the feed parser's bound (spec §4.7).
const MaxArticlesPerRequest = 50

const minFallbackHeadlineTitleLen = 10
const minSemanticPassResults = 5

// containerSelectors are tried in order during the semantic pass.
// Each one is expected to wrap one article's title/link/date/summary.
var containerSelectors = []string{
	`article`,
	`[itemtype*="schema.org/Article"]`,
	`[itemtype*="schema.org/NewsArticle"]`,
	`.post-item, .post-card, .post-list-item`,
	`.article-item, .article-card, .article-list-item`,
	`[class*="post-"]`,
	`[class*="article-"]`,
}

var dateSelectors = []string{
	"time[datetime]", "time", ".date", ".published", "[class*=date]", "[class*=time]",
}

var authorSelectors = []string{
	".author", "[class*=author]", "[rel=author]",
}

var stripSelectors = []string{"script", "style", "nav", "footer", "aside", "noscript"}

// Scrape parses rawHTML (resolved against baseURL) for sourceDomain.
// dates may be nil, in which case published dates are left unset.
func Scrape(rawHTML []byte, baseURL, sourceDomain string, dates *dateparse.Parser) ([]entity.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(rawHTML)))
	if err != nil {
		return nil, entity.NewKindedError(entity.ErrKindParseError, "parse listing html: "+err.Error())
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, entity.NewKindedError(entity.ErrKindInvalidArgument, "invalid base url: "+err.Error())
	}

	for _, sel := range stripSelectors {
		doc.Find(sel).Remove()
	}

	articles := semanticPass(doc, base, sourceDomain, dates)
	if len(articles) < minSemanticPassResults {
		fallback := headlineFallback(doc, base, sourceDomain)
		articles = mergeDedupByURL(articles, fallback)
	}

	if len(articles) > MaxArticlesPerRequest {
		articles = articles[:MaxArticlesPerRequest]
	}
	return articles, nil
}

func rawDateText(sel *goquery.Selection) string {
	for _, s := range dateSelectors {
		node := sel.Find(s).First()
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

func semanticPass(doc *goquery.Document, base *url.URL, sourceDomain string, dates *dateparse.Parser) []entity.Article {
	seen := make(map[string]struct{})
	var articles []entity.Article

	for _, containerSel := range containerSelectors {
		doc.Find(containerSel).Each(func(_ int, container *goquery.Selection) {
			link := container.Find("a[href]").First()
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			resolved, ok := resolveURL(base, href)
			if !ok {
				return
			}
			if _, dup := seen[resolved]; dup {
				return
			}

			title := strings.TrimSpace(link.Text())
			if title == "" {
				title = strings.TrimSpace(container.Find("h1, h2, h3").First().Text())
			}
			if title == "" {
				return
			}

			seen[resolved] = struct{}{}
			article := entity.Article{
				Title:        title,
				URL:          resolved,
				Summary:      firstParagraph(container),
				Author:       firstMatch(container, authorSelectors),
				SourceDomain: sourceDomain,
			}
			if dates != nil {
				if raw := rawDateText(container); raw != "" {
					if t, ok := dates.Parse(raw); ok {
						article.PublishedAt = t
					}
				}
			}
			articles = append(articles, article)
		})
	}

	return articles
}

func headlineFallback(doc *goquery.Document, base *url.URL, sourceDomain string) []entity.Article {
	seen := make(map[string]struct{})
	var articles []entity.Article

	doc.Find("h1, h2, h3").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if len(title) < minFallbackHeadlineTitleLen {
			return
		}

		anchor := heading.Find("a[href]").First()
		if anchor.Length() == 0 {
			anchor = heading.Closest("a[href]")
		}
		if anchor.Length() == 0 {
			anchor = heading.Parent().Find("a[href]").First()
		}
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}

		resolved, ok := resolveURL(base, href)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}

		seen[resolved] = struct{}{}
		articles = append(articles, entity.Article{
			Title:        title,
			URL:          resolved,
			SourceDomain: sourceDomain,
		})
	})

	return articles
}

func firstParagraph(sel *goquery.Selection) string {
	p := strings.TrimSpace(sel.Find("p").First().Text())
	return p
}

func firstMatch(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if text := strings.TrimSpace(sel.Find(s).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// resolveURL normalizes href per spec §4.7: protocol-relative URLs get
// "https:", relative paths resolve against base, and the result must
// pass the same safety filter as C1.
func resolveURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref).String()
	if err := entity.ValidateURL(resolved); err != nil {
		return "", false
	}
	return resolved, true
}

func mergeDedupByURL(primary, secondary []entity.Article) []entity.Article {
	seen := make(map[string]struct{}, len(primary))
	for _, a := range primary {
		seen[a.URL] = struct{}{}
	}
	merged := append([]entity.Article(nil), primary...)
	for _, a := range secondary {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		merged = append(merged, a)
	}
	return merged
}

package listingscraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsnexus/internal/dateparse"
)

const sampleListingHTML = `<!DOCTYPE html>
<html>
<head><title>Example News</title></head>
<body>
<nav><a href="/about">About</a></nav>
<script>var x = 1;</script>
<main>
  <article>
    <h2><a href="/news/first-article">First Article Title</a></h2>
    <p>Summary of the first article goes here.</p>
    <span class="author">Jane Doe</span>
    <time datetime="2024-01-15T10:30:00Z">Jan 15</time>
  </article>
  <div class="post-card">
    <a href="//cdn.example.com/news/second-article">Second Article Title</a>
    <p>Summary of the second article.</p>
  </div>
  <div class="article-item">
    <a href="https://example.com/news/third-article">Third Article Title</a>
    <p>Summary of the third article.</p>
  </div>
  <div class="post-item">
    <a href="https://127.0.0.1/news/unsafe-article">Unsafe Article Title</a>
    <p>This one should be filtered out by the safety check.</p>
  </div>
</main>
<footer><a href="/contact">Contact</a></footer>
</body>
</html>`

const headlineOnlyHTML = `<!DOCTYPE html>
<html>
<body>
<h1><a href="/news/headline-one">A sufficiently long headline one</a></h1>
<h2><a href="/news/headline-two">A sufficiently long headline two</a></h2>
<h3>
  <a href="/news/headline-three">A sufficiently long headline three</a>
</h3>
<h2>short</h2>
</body>
</html>`

func TestScrape_SemanticPass_ExtractsTitleLinkSummaryAuthor(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	require.NotEmpty(t, articles)

	first := articles[0]
	assert.Equal(t, "First Article Title", first.Title)
	assert.Equal(t, "https://example.com/news/first-article", first.URL)
	assert.Equal(t, "Summary of the first article goes here.", first.Summary)
	assert.Equal(t, "Jane Doe", first.Author)
	assert.Equal(t, "example.com", first.SourceDomain)
}

func TestScrape_SemanticPass_ExtractsDateViaDateParser(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", dateparse.New())
	require.NoError(t, err)
	require.NotEmpty(t, articles)
	assert.Equal(t, 2024, articles[0].PublishedAt.Year())
}

func TestScrape_SemanticPass_NilDateParserLeavesPublishedAtUnset(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	require.NotEmpty(t, articles)
	assert.True(t, articles[0].PublishedAt.IsZero())
}

func TestScrape_StripsNavAndScriptBeforeExtraction(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	for _, a := range articles {
		assert.NotEqual(t, "https://example.com/about", a.URL)
		assert.NotEqual(t, "https://example.com/contact", a.URL)
	}
}

func TestScrape_ResolvesProtocolRelativeAndRelativeURLs(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)

	var urls []string
	for _, a := range articles {
		urls = append(urls, a.URL)
	}
	assert.Contains(t, urls, "https://example.com/news/first-article")
	assert.Contains(t, urls, "https://cdn.example.com/news/second-article")
	assert.Contains(t, urls, "https://example.com/news/third-article")
}

func TestScrape_FiltersUnsafeAbsoluteURL(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	for _, a := range articles {
		assert.NotContains(t, a.URL, "127.0.0.1")
	}
}

func TestScrape_DedupsByURL(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, a := range articles {
		seen[a.URL]++
	}
	for u, count := range seen {
		assert.Equal(t, 1, count, "url %s appeared more than once", u)
	}
}

func TestScrape_HeadlineFallback_TriggersWhenSemanticPassIsSparse(t *testing.T) {
	articles, err := Scrape([]byte(headlineOnlyHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	require.Len(t, articles, 3)

	var titles []string
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	assert.Contains(t, titles, "A sufficiently long headline one")
	assert.Contains(t, titles, "A sufficiently long headline two")
	assert.Contains(t, titles, "A sufficiently long headline three")
	assert.NotContains(t, titles, "short")
}

func TestScrape_HeadlineFallback_SkipsShortTitles(t *testing.T) {
	articles, err := Scrape([]byte(headlineOnlyHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	for _, a := range articles {
		assert.GreaterOrEqual(t, len(a.Title), minFallbackHeadlineTitleLen)
	}
}

func TestScrape_CapsAtMaxArticlesPerRequest(t *testing.T) {
	articles, err := Scrape([]byte(sampleListingHTML), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(articles), MaxArticlesPerRequest)
}

func TestScrape_InvalidHTMLStillParses(t *testing.T) {
	articles, err := Scrape([]byte("<html><body><p>no articles here</p></body></html>"), "https://example.com", "example.com", nil)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestScrape_InvalidBaseURLReturnsKindedError(t *testing.T) {
	_, err := Scrape([]byte(sampleListingHTML), "://not-a-url", "example.com", nil)
	assert.Error(t, err)
}

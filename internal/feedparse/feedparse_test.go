package feedparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Feed</title>
  <item>
    <title>First Article</title>
    <link>https://example.com/first</link>
    <description>&lt;p&gt;Summary of the  first article.&lt;/p&gt;</description>
    <pubDate>Mon, 15 Jan 2024 10:30:00 GMT</pubDate>
    <category>tech</category>
    <category>ai</category>
  </item>
  <item>
    <title>Missing Link</title>
    <description>No link here</description>
  </item>
  <item>
    <link>https://example.com/missing-title</link>
    <description>No title here</description>
  </item>
  <item>
    <title>Second Article</title>
    <link>https://example.com/second</link>
    <description>Another summary</description>
  </item>
</channel>
</rss>`

func TestParser_Parse_SkipsMalformedEntries(t *testing.T) {
	p := New(nil)
	articles, err := p.Parse(context.Background(), []byte(sampleRSS), "example.com")
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "First Article", articles[0].Title)
	assert.Equal(t, "https://example.com/first", articles[0].URL)
	assert.Equal(t, "example.com", articles[0].SourceDomain)
}

func TestParser_Parse_SanitizesSummary(t *testing.T) {
	p := New(nil)
	articles, err := p.Parse(context.Background(), []byte(sampleRSS), "example.com")
	require.NoError(t, err)
	assert.NotContains(t, articles[0].Summary, "<p>")
	assert.Contains(t, articles[0].Summary, "Summary of the first article.")
}

func TestParser_Parse_ExtractsTagsCappedAtFive(t *testing.T) {
	p := New(nil)
	articles, err := p.Parse(context.Background(), []byte(sampleRSS), "example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "ai"}, articles[0].Tags)
}

func TestParser_Parse_UsesPublishedParsedDate(t *testing.T) {
	p := New(nil)
	articles, err := p.Parse(context.Background(), []byte(sampleRSS), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 2024, articles[0].PublishedAt.Year())
}

func TestParser_Parse_UnparseableFeedReturnsKindedError(t *testing.T) {
	p := New(nil)
	_, err := p.Parse(context.Background(), []byte("not xml at all"), "example.com")
	assert.Error(t, err)
}

func TestParser_Parse_CapsAtMaxArticlesPerRequest(t *testing.T) {
	p := New(nil)
	articles, err := p.Parse(context.Background(), []byte(sampleRSS), "example.com")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(articles), MaxArticlesPerRequest)
}

package cascade

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsnexus/internal/domain/entity"
	"newsnexus/internal/httpclient"
)

const sampleFeedXML = `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item><title>Tier One Story</title><link>%s/one</link><pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`

func testHTTPClient() *httpclient.Client {
	cfg := httpclient.DefaultCascadeConfig()
	cfg.SkipSSRFValidation = true
	cfg.RatePerSecond = 0
	return httpclient.New(cfg)
}

func TestEngine_Run_FetchesSingleTierFeed(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeedContent(srv)))
	}))
	defer srv.Close()

	publisher := entity.PublisherConfig{
		Domain:   "example.com",
		Priority: 1,
		Sources: []entity.PublisherSource{
			{Type: entity.SourceOfficialFeed, URL: srv.URL, Priority: 1},
		},
	}

	e := New(DefaultConfig(), testHTTPClient(), nil)
	result := e.Run(context.Background(), Request{Publisher: publisher, Count: 5})

	require.Len(t, result.Articles, 1)
	assert.Equal(t, "Tier One Story", result.Articles[0].Title)
	require.Len(t, result.Provenance, 1)
	assert.Equal(t, 1, result.Provenance[0].Rank)
}

func TestEngine_Run_EarlyTerminatesOnceCountReached(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeedContent(srv)))
	}))
	defer srv.Close()

	publisher := entity.PublisherConfig{
		Domain: "example.com",
		Sources: []entity.PublisherSource{
			{Type: entity.SourceOfficialFeed, URL: srv.URL, Priority: 1},
			{Type: entity.SourceAggregator, URL: srv.URL, Priority: 2},
		},
	}

	e := New(DefaultConfig(), testHTTPClient(), nil)
	result := e.Run(context.Background(), Request{Publisher: publisher, Count: 1})

	assert.Len(t, result.Articles, 1)
	assert.Len(t, result.Provenance, 1, "second tier should never be scanned once count is reached")
}

func TestEngine_Run_AllSourcesFailYieldsEmptyResultWithMessage(t *testing.T) {
	publisher := entity.PublisherConfig{
		Domain: "example.com",
		Sources: []entity.PublisherSource{
			{Type: entity.SourceOfficialFeed, URL: "http://127.0.0.1:9/feed", Priority: 1},
		},
	}

	e := New(DefaultConfig(), testHTTPClient(), nil)
	result := e.Run(context.Background(), Request{Publisher: publisher, Count: 5})

	assert.Empty(t, result.Articles)
	assert.Equal(t, "no articles found", result.Message)
}

func TestEngine_Run_FastPathCollapsesToOfficialFeedAndAggregator(t *testing.T) {
	publisher := entity.PublisherConfig{
		Domain: "example.com",
		Sources: []entity.PublisherSource{
			{Type: entity.SourceOfficialFeed, URL: "https://example.com/feed", Priority: 1},
			{Type: entity.SourceScraper, URL: "https://example.com/news", Priority: 2},
			{Type: entity.SourceAggregator, URL: "https://example.com/aggregator", Priority: 3},
		},
	}

	tiers := fastPathTiers(publisher.Tiers())
	require.Len(t, tiers, 2)
	assert.Equal(t, entity.SourceOfficialFeed, tiers[0].Sources[0].Type)
	assert.Equal(t, entity.SourceAggregator, tiers[1].Sources[0].Type)
}

func TestEngine_Run_ClampsCountAndDaysToCaps(t *testing.T) {
	publisher := entity.PublisherConfig{
		Domain: "example.com",
		Sources: []entity.PublisherSource{
			{Type: entity.SourceOfficialFeed, URL: "http://127.0.0.1:9/feed", Priority: 1},
		},
	}

	e := New(DefaultConfig(), testHTTPClient(), nil)
	result := e.Run(context.Background(), Request{Publisher: publisher, Count: 500, Days: 10000})

	assert.Empty(t, result.Articles)
}

func TestFastPathTiers_NoOfficialFeedFallsBackToOriginalTiers(t *testing.T) {
	publisher := entity.PublisherConfig{
		Domain: "example.com",
		Sources: []entity.PublisherSource{
			{Type: entity.SourceScraper, URL: "https://example.com/news", Priority: 1},
		},
	}

	tiers := fastPathTiers(publisher.Tiers())
	require.Len(t, tiers, 1)
	assert.Equal(t, entity.SourceScraper, tiers[0].Sources[0].Type)
}

func sampleFeedContent(srv *httptest.Server) string {
	return fmt.Sprintf(sampleFeedXML, srv.URL)
}

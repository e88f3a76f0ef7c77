package requesthandler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsnexus/internal/aggregator"
	"newsnexus/internal/cascade"
	"newsnexus/internal/domain/entity"
	"newsnexus/internal/httpclient"
	"newsnexus/internal/publisherregistry"
	"newsnexus/internal/respcache"
)

const feedXML = `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item><title>Handled Story</title><link>%s/one</link><pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`

func testCascadeHTTPClient() *httpclient.Client {
	cfg := httpclient.DefaultCascadeConfig()
	cfg.SkipSSRFValidation = true
	cfg.RatePerSecond = 0
	return httpclient.New(cfg)
}

func newTestHandler(t *testing.T, configs []entity.PublisherConfig) *Handler {
	t.Helper()
	reg, err := publisherregistry.FromConfigs(configs)
	require.NoError(t, err)

	engine := cascade.New(cascade.DefaultConfig(), testCascadeHTTPClient(), nil)
	agg := aggregator.New(aggregator.DefaultConfig(), engine, reg)
	cache := respcache.New(respcache.DefaultConfig())

	return New(DefaultConfig(), reg, engine, agg, cache)
}

func TestHandle_InvalidDomainReturnsInvalidArgument(t *testing.T) {
	h := newTestHandler(t, nil)
	_, err := h.Handle(context.Background(), Request{Domain: "not a domain!!"})
	require.Error(t, err)
	kerr, ok := err.(*entity.KindedError)
	require.True(t, ok)
	assert.Equal(t, entity.ErrKindInvalidArgument, kerr.Kind)
}

func TestHandle_UnconfiguredDomainReturnsNotConfigured(t *testing.T) {
	h := newTestHandler(t, nil)
	_, err := h.Handle(context.Background(), Request{Domain: "unknown.example"})
	require.Error(t, err)
	kerr, ok := err.(*entity.KindedError)
	require.True(t, ok)
	assert.Equal(t, entity.ErrKindNotConfigured, kerr.Kind)
}

func TestHandle_FetchesAndCachesSingleDomainResult(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fmt.Sprintf(feedXML, srv.URL)))
	}))
	defer srv.Close()

	configs := []entity.PublisherConfig{
		{
			Domain:   "example.com",
			Priority: 1,
			Sources: []entity.PublisherSource{
				{Type: entity.SourceOfficialFeed, URL: srv.URL, Priority: 1},
			},
		},
	}
	h := newTestHandler(t, configs)

	resp, err := h.Handle(context.Background(), Request{Domain: "example.com", Count: 5})
	require.NoError(t, err)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "Handled Story", resp.Articles[0].Title)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.SourceUsed)

	resp2, err := h.Handle(context.Background(), Request{Domain: "example.com", Count: 5})
	require.NoError(t, err)
	assert.True(t, resp2.Cached)
	require.Len(t, resp2.Articles, 1)
}

func TestHandle_AllSourcesFailReturnsNoContent(t *testing.T) {
	configs := []entity.PublisherConfig{
		{
			Domain: "dead.example",
			Sources: []entity.PublisherSource{
				{Type: entity.SourceOfficialFeed, URL: "http://127.0.0.1:9/feed", Priority: 1},
			},
		},
	}
	h := newTestHandler(t, configs)

	resp, err := h.Handle(context.Background(), Request{Domain: "dead.example", Count: 5})
	require.Error(t, err)
	kerr, ok := err.(*entity.KindedError)
	require.True(t, ok)
	assert.Equal(t, entity.ErrKindNoContent, kerr.Kind)
	assert.Empty(t, resp.Articles)
}

func TestHandle_RateLimitedAfterNRequests(t *testing.T) {
	configs := []entity.PublisherConfig{
		{
			Domain: "limited.example",
			Sources: []entity.PublisherSource{
				{Type: entity.SourceOfficialFeed, URL: "http://127.0.0.1:9/feed", Priority: 1},
			},
		},
	}
	h := newTestHandler(t, configs)
	h.cfg.RateLimitN = 2
	h.cfg.RateLimitW = rateLimitWindow

	_, err1 := h.Handle(context.Background(), Request{Domain: "limited.example"})
	_, err2 := h.Handle(context.Background(), Request{Domain: "limited.example"})
	_, err3 := h.Handle(context.Background(), Request{Domain: "limited.example"})

	require.Error(t, err1)
	assert.Equal(t, entity.ErrKindNoContent, err1.(*entity.KindedError).Kind)
	require.Error(t, err2)
	assert.Equal(t, entity.ErrKindNoContent, err2.(*entity.KindedError).Kind)

	require.Error(t, err3)
	kerr3 := err3.(*entity.KindedError)
	assert.Equal(t, entity.ErrKindRateLimited, kerr3.Kind)
	assert.GreaterOrEqual(t, kerr3.RetryAfter, 0)
	assert.LessOrEqual(t, kerr3.RetryAfter, 60)
}

func TestHandle_AggregatesAcrossPublishersWhenDomainEmpty(t *testing.T) {
	configs := []entity.PublisherConfig{
		{
			Domain:   "a.example",
			Priority: 1,
			Sources: []entity.PublisherSource{
				{Type: entity.SourceOfficialFeed, URL: "http://127.0.0.1:9/feed", Priority: 1},
			},
		},
	}
	h := newTestHandler(t, configs)

	resp, err := h.Handle(context.Background(), Request{Count: 5})
	require.Error(t, err)
	assert.Equal(t, entity.ErrKindNoContent, err.(*entity.KindedError).Kind)
	assert.Equal(t, "cross-publisher aggregation", resp.SourceUsed)
}

func TestStreamDomain_InvokesOnTierCallback(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fmt.Sprintf(feedXML, srv.URL)))
	}))
	defer srv.Close()

	configs := []entity.PublisherConfig{
		{
			Domain:   "stream.example",
			Priority: 1,
			Sources: []entity.PublisherSource{
				{Type: entity.SourceOfficialFeed, URL: srv.URL, Priority: 1},
			},
		},
	}
	h := newTestHandler(t, configs)

	var tiers []cascade.Provenance
	resp, err := h.StreamDomain(context.Background(), Request{Domain: "stream.example", Count: 5}, func(p cascade.Provenance) {
		tiers = append(tiers, p)
	})
	require.NoError(t, err)
	require.Len(t, resp.Articles, 1)
	require.Len(t, tiers, 1)
	assert.Equal(t, 1, tiers[0].Rank)
}

func TestStreamDomain_RequiresDomain(t *testing.T) {
	h := newTestHandler(t, nil)
	_, err := h.StreamDomain(context.Background(), Request{}, nil)
	require.Error(t, err)
	assert.Equal(t, entity.ErrKindInvalidArgument, err.(*entity.KindedError).Kind)
}

func TestValidate_ClampsDaysAndCount(t *testing.T) {
	norm, err := validate(Request{Domain: "example.com", Days: 10000, Count: 10000})
	require.NoError(t, err)
	assert.Equal(t, recentDaysCap, norm.Days)
	assert.Equal(t, maxCount, norm.Count)
}

func TestValidate_DefaultsWhenUnset(t *testing.T) {
	norm, err := validate(Request{})
	require.NoError(t, err)
	assert.Equal(t, recentDaysCap, norm.Days)
	assert.Equal(t, cascade.DefaultConfig().DefaultCount, norm.Count)
}

func TestSanitize_LowercasesAndStripsControlChars(t *testing.T) {
	got := sanitize("  AI\x00 News\x07 ")
	assert.Equal(t, "ai news", got)
}

func TestValidate_RejectsMalformedDomain(t *testing.T) {
	_, err := validate(Request{Domain: "http://not-a-bare-domain/"})
	require.Error(t, err)
}

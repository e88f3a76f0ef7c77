// Command topnews is a thin CLI wrapper around the get_top_news tool
// (cross-publisher aggregation), grounded in
// _examples/original_source/fetch_news.py's flag shape and its
// --summary_lines truncation behavior, a feature the distilled spec
// dropped but is reproduced here as a supplemented CLI convenience.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"newsnexus/internal/aggregator"
	"newsnexus/internal/appconfig"
	"newsnexus/internal/cascade"
	"newsnexus/internal/deepscraper"
	"newsnexus/internal/domain/entity"
	"newsnexus/internal/httpclient"
	"newsnexus/internal/observability/logging"
	"newsnexus/internal/publisherregistry"
	"newsnexus/internal/requesthandler"
	"newsnexus/internal/respcache"
)

func main() {
	topic := flag.String("topic", "", "optional topic filter")
	location := flag.String("location", "", "optional location filter")
	days := flag.Int("days", 1, "fetch articles from the last N days")
	count := flag.Int("count", 10, "maximum number of articles to return")
	summaryLines := flag.Int("summary-lines", 3, "truncate each article's summary to this many sentences")
	jsonOut := flag.Bool("json", false, "print raw JSON instead of a human-readable summary")
	flag.Parse()

	logger := logging.NewLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, err := buildHandler(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "topnews: %v\n", err)
		os.Exit(1)
	}

	resp, err := handler.Handle(ctx, requesthandler.Request{
		Topic:    *topic,
		Location: *location,
		Days:     *days,
		Count:    *count,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "topnews: %v\n", err)
	}

	if *jsonOut {
		b, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(b))
		return
	}

	if len(resp.Articles) == 0 {
		fmt.Printf("No articles found (%s)\n", resp.Message)
		return
	}
	fmt.Printf("Top %d articles from %s in %dms:\n\n", len(resp.Articles), resp.SourceUsed, resp.DurationMs)
	for i, a := range resp.Articles {
		fmt.Printf("%d. %s (%s)\n", i+1, a.Title, a.SourceDomain)
		if s := truncateSummary(a, *summaryLines); s != "" {
			fmt.Printf("   Summary: %s\n", s)
		}
		fmt.Printf("   %s\n\n", a.URL)
	}
}

// truncateSummary mirrors fetch_news.py's "lines = summary.split('. ');
// short = '. '.join(lines[:summaryLines])" behavior: split on sentence
// boundaries and keep only the first n, appending "..." when trimmed.
func truncateSummary(a entity.Article, n int) string {
	if a.Summary == "" || n <= 0 {
		return ""
	}
	sentences := strings.Split(a.Summary, ". ")
	if len(sentences) <= n {
		return a.Summary
	}
	return strings.Join(sentences[:n], ". ") + "..."
}

// buildHandler assembles the same dependency graph as cmd/server's
// main, minus the transports: config -> registry -> cascade/aggregator
// -> cache -> request handler.
func buildHandler(logger *slog.Logger) (*requesthandler.Handler, error) {
	cfg := appconfig.Load()

	registry, err := publisherregistry.Load(cfg.PublisherConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading publisher configuration: %w", err)
	}

	cascadeClient := httpclient.New(httpclient.DefaultCascadeConfig())

	var deepScraper *deepscraper.Scraper
	if cfg.DeepScrapeEnabled {
		deepClient := httpclient.New(httpclient.DefaultDeepScrapeConfig())
		deepScraper = deepscraper.New(deepClient, cfg.DeepScraperConfig(), nil)
	}

	engine := cascade.New(cascade.DefaultConfig(), cascadeClient, deepScraper)
	agg := aggregator.New(aggregator.DefaultConfig(), engine, registry)
	cache := respcache.New(cfg.RespCacheConfig())
	return requesthandler.New(cfg.RequestHandlerConfig(), registry, engine, agg, cache), nil
}

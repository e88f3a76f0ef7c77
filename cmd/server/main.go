// Command server wires configuration, the publisher registry, the
// cascade engine, and the cross-publisher aggregator into both
// transports: an HTTP API (REST + SSE) and a line-delimited JSON-RPC
// stdio loop, matching spec §6's entrypoint shape.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"newsnexus/internal/aggregator"
	"newsnexus/internal/appconfig"
	"newsnexus/internal/cascade"
	"newsnexus/internal/deepscraper"
	"newsnexus/internal/httpclient"
	"newsnexus/internal/observability/logging"
	"newsnexus/internal/publisherregistry"
	"newsnexus/internal/requesthandler"
	"newsnexus/internal/respcache"
	"newsnexus/internal/transport/httpapi"
	"newsnexus/internal/transport/stdio"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	registry, err := publisherregistry.Load(cfg.PublisherConfigPath)
	if err != nil {
		logger.Error("failed to load publisher configuration", "path", cfg.PublisherConfigPath, "error", err)
		os.Exit(1)
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
	handler := requesthandler.New(cfg.RequestHandlerConfig(), registry, engine, agg, cache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runStdio(ctx, handler, logger)

	httpServer := httpapi.New(handler, logger)
	logger.Info("http api listening", "addr", cfg.HTTPAddr)
	if err := httpapi.ListenAndServe(ctx, cfg.HTTPAddr, httpServer.Handler(), logger); err != nil {
		logger.Error("http server exited with error", "error", err)
		os.Exit(1)
	}
}

// runStdio runs the JSON-RPC stdio loop alongside the HTTP API. When
// stdin isn't connected to a pipe (the common case for a bare HTTP
// deployment) the read simply blocks until process shutdown, which is
// harmless.
func runStdio(ctx context.Context, handler *requesthandler.Handler, logger *slog.Logger) {
	srv := stdio.New(handler, logger)
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logger.Warn("stdio transport exited", "error", err)
	}
}

// Package appconfig assembles process-wide configuration from
// environment variables, per spec §6's "Environment variables (all
// optional, with documented defaults)" list. It reuses the teacher's
// pkg/config env-reading helpers rather than hand-rolling os.Getenv
// parsing.
package appconfig

import (
	"log/slog"
	"time"

	"newsnexus/internal/deepscraper"
	"newsnexus/internal/requesthandler"
	"newsnexus/internal/respcache"
	"newsnexus/pkg/config"
)

// Config is every environment-tunable knob the server process reads
// at startup. Publisher configuration is loaded once and treated as
// immutable thereafter (spec §5).
type Config struct {
	LogLevel             string
	HTTPAddr             string
	PublisherConfigPath  string

	MaxArticlesPerRequest int

	CacheTTL     time.Duration
	CacheMaxSize int

	RateLimitCount  int
	RateLimitWindow time.Duration

	ParallelFetch bool

	DeepScrapeEnabled   bool
	DeepScrapeMaxArticles int
	DeepScrapeWorkers   int
	DeepScrapeTimeout   time.Duration
}

// Load reads Config from the environment, falling back to the spec's
// documented defaults for anything unset.
func Load() Config {
	return Config{
		LogLevel:            config.GetEnvString("LOG_LEVEL", "info"),
		HTTPAddr:             config.GetEnvString("HTTP_ADDR", ":8080"),
		PublisherConfigPath:  config.GetEnvString("PUBLISHER_CONFIG_PATH", "publishers.json"),
		MaxArticlesPerRequest: config.GetEnvInt("MAX_ARTICLES_PER_REQUEST", 50),
		CacheTTL:             config.GetEnvDuration("CACHE_TTL", respcache.DefaultConfig().TTL),
		CacheMaxSize:         config.GetEnvInt("CACHE_MAX_SIZE", respcache.DefaultConfig().MaxSize),
		RateLimitCount:       config.GetEnvInt("RATE_LIMIT_COUNT", 10),
		RateLimitWindow:      config.GetEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		ParallelFetch:        config.GetEnvBool("PARALLEL_FETCH", true),
		DeepScrapeEnabled:    config.GetEnvBool("DEEP_SCRAPE_ENABLED", true),
		DeepScrapeMaxArticles: config.GetEnvInt("DEEP_SCRAPE_MAX_ARTICLES", deepscraper.DefaultConfig().MaxArticles),
		DeepScrapeWorkers:    config.GetEnvInt("DEEP_SCRAPE_PARALLEL_WORKERS", deepscraper.DefaultConfig().ParallelWorkers),
		DeepScrapeTimeout:    config.GetEnvDuration("DEEP_SCRAPE_TIMEOUT", deepscraper.DefaultConfig().PerArticleTimeout),
	}
}

// LogLevelValue parses LogLevel into an slog.Level, defaulting to
// Info on an unrecognized value.
func (c Config) LogLevelValue() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RespCacheConfig derives the response cache's tuning from Config.
func (c Config) RespCacheConfig() respcache.Config {
	return respcache.Config{TTL: c.CacheTTL, MaxSize: c.CacheMaxSize}
}

// RequestHandlerConfig derives C14's tuning from Config.
func (c Config) RequestHandlerConfig() requesthandler.Config {
	return requesthandler.Config{
		Cache:      c.RespCacheConfig(),
		RateLimitN: c.RateLimitCount,
		RateLimitW: c.RateLimitWindow,
	}
}

// DeepScraperConfig derives C8's tuning from Config.
func (c Config) DeepScraperConfig() deepscraper.Config {
	cfg := deepscraper.DefaultConfig()
	cfg.MaxArticles = c.DeepScrapeMaxArticles
	cfg.ParallelWorkers = c.DeepScrapeWorkers
	cfg.PerArticleTimeout = c.DeepScrapeTimeout
	return cfg
}

// Package respcache implements the response cache (spec component
// C3): a bounded TTL+LRU key→value store keyed by a stable hash of
// (domain, topic, location, days).
package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"newsnexus/internal/lru"
	"newsnexus/internal/observability/metrics"
)

// Config tunes the cache. Matches the env-config shape used elsewhere
// in the codebase (Default.../Validate/LoadFromEnv).
type Config struct {
	TTL     time.Duration
	MaxSize int
}

// DefaultConfig returns the spec's documented defaults: 300s TTL,
// 1,000 entry bound.
func DefaultConfig() Config {
	return Config{TTL: 300 * time.Second, MaxSize: 1000}
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", c.TTL)
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("cache max size must be positive, got %d", c.MaxSize)
	}
	return nil
}

// Key identifies one cached response. Hash turns it into the stable
// string key the LRU cache stores.
type Key struct {
	Domain   string
	Topic    string
	Location string
	Days     int
}

// Hash returns a stable, fixed-length cache key for k.
func (k Key) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", k.Domain, k.Topic, k.Location, k.Days)
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	value     any
	storedAt  time.Time
}

// Cache is a thread-safe TTL+LRU store. The LRU bound is enforced by
// the embedded lru.Cache; TTL freshness is checked on Get.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, entry]
	ttl    time.Duration
	nowFn  func() time.Time
}

// New returns a Cache configured per cfg.
func New(cfg Config) *Cache {
	return &Cache{
		lru:   lru.New[string, entry](cfg.MaxSize),
		ttl:   cfg.TTL,
		nowFn: time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
// A cache hit or miss is recorded in the shared metrics registry.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key.Hash())
	if !ok || c.nowFn().Sub(e.storedAt) >= c.ttl {
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return e.value, true
}

// Set inserts or refreshes the cached value for key.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Put(key.Hash(), entry{value: value, storedAt: c.nowFn()})
}

// Len reports the number of entries currently stored (including any
// that are logically expired but not yet evicted).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

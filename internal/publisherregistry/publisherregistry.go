// Package publisherregistry implements the publisher registry
// (component C11): loads the publisher-configuration document,
// validates it, and indexes it by domain for fast, forgiving lookup.
package publisherregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"newsnexus/internal/domain/entity"
)

// Registry is the immutable, in-memory index of publisher configs.
// Loaded once at startup and treated as read-only thereafter, so no
// locking is needed on lookup.
type Registry struct {
	byDomain map[string]entity.PublisherConfig
	domains  []string // insertion order, used for the prefix-scan fallback
}

// Load reads and validates a publisher-configuration document from
// path. JSON is the primary format; a ".yaml"/".yml" extension is
// decoded as YAML instead.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publisher config %s: %w", path, err)
	}

	var configs []entity.PublisherConfig
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(raw, &configs); err != nil {
			return nil, entity.NewKindedError(entity.ErrKindParseError, "parse publisher config: "+err.Error())
		}
	} else {
		if err := json.Unmarshal(raw, &configs); err != nil {
			return nil, entity.NewKindedError(entity.ErrKindParseError, "parse publisher config: "+err.Error())
		}
	}

	return build(configs)
}

// FromConfigs builds a Registry directly from already-decoded configs,
// validating each one. Used by callers that assemble publisher
// configuration programmatically rather than loading it from disk.
func FromConfigs(configs []entity.PublisherConfig) (*Registry, error) {
	return build(configs)
}

func build(configs []entity.PublisherConfig) (*Registry, error) {
	r := &Registry{byDomain: make(map[string]entity.PublisherConfig, len(configs)*2)}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid publisher config for %q: %w", cfg.Domain, err)
		}

		domain := strings.ToLower(cfg.Domain)
		r.byDomain[domain] = cfg
		r.domains = append(r.domains, domain)

		if strings.HasPrefix(domain, "www.") {
			r.byDomain[strings.TrimPrefix(domain, "www.")] = cfg
		} else {
			r.byDomain["www."+domain] = cfg
		}
	}

	return r, nil
}

// Lookup resolves a caller-supplied domain string to a PublisherConfig
// per spec §4.11: exact key, then with/without "www.", then a linear
// prefix scan (so "openai" resolves to "openai.com").
func (r *Registry) Lookup(input string) (entity.PublisherConfig, bool) {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return entity.PublisherConfig{}, false
	}

	if cfg, ok := r.byDomain[key]; ok {
		return cfg, true
	}

	altered := "www." + key
	if strings.HasPrefix(key, "www.") {
		altered = strings.TrimPrefix(key, "www.")
	}
	if cfg, ok := r.byDomain[altered]; ok {
		return cfg, true
	}

	for _, domain := range r.domains {
		if strings.HasPrefix(domain, key) {
			return r.byDomain[domain], true
		}
	}

	return entity.PublisherConfig{}, false
}

// All returns every distinct registered PublisherConfig, in load
// order, for use by the cross-publisher aggregator (C12).
func (r *Registry) All() []entity.PublisherConfig {
	seen := make(map[string]struct{}, len(r.domains))
	out := make([]entity.PublisherConfig, 0, len(r.domains))
	for _, domain := range r.domains {
		cfg := r.byDomain[domain]
		key := cfg.Domain
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cfg)
	}
	return out
}

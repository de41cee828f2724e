// Package flags caches feature-flag lookups with a bounded staleness window.
// Each cache owns its entries; there is no process-global flag state. A flag
// flip becomes visible when its entry expires, or immediately after an
// explicit Invalidate.
package flags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultTTL = 30 * time.Second

var (
	ErrSourceRequired = errors.New("flag source is required")
	ErrNameRequired   = errors.New("flag name is required")
)

// Source resolves the authoritative value of a flag. Lookups are expected to
// hit a database or a remote service, which is what the cache exists to
// shield.
type Source interface {
	Lookup(ctx context.Context, name string) (bool, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, name string) (bool, error)

// Lookup implements Source.
func (fn SourceFunc) Lookup(ctx context.Context, name string) (bool, error) {
	return fn(ctx, name)
}

type entry struct {
	value     bool
	expiresAt time.Time
}

// Cache is a TTL cache over a Source.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the staleness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(cache *Cache) {
		if ttl > 0 {
			cache.ttl = ttl
		}
	}
}

// WithCacheClock overrides the cache's time source.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(cache *Cache) {
		if now != nil {
			cache.now = now
		}
	}
}

// NewCache creates a cache over the given source.
func NewCache(source Source, opts ...CacheOption) (*Cache, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	cache := &Cache{
		source:  source,
		ttl:     defaultTTL,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]entry),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}

	return cache, nil
}

// Enabled reports the flag's value, serving it from cache within the
// staleness window. A failed source lookup is returned as an error rather
// than cached; the next call retries.
func (cache *Cache) Enabled(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrNameRequired
	}

	now := cache.now()

	cache.mu.Lock()
	cached, ok := cache.entries[name]
	cache.mu.Unlock()

	if ok && now.Before(cached.expiresAt) {
		return cached.value, nil
	}

	value, err := cache.source.Lookup(ctx, name)
	if err != nil {
		return false, fmt.Errorf("lookup flag %q: %w", name, err)
	}

	cache.mu.Lock()
	cache.entries[name] = entry{value: value, expiresAt: now.Add(cache.ttl)}
	cache.mu.Unlock()

	return value, nil
}

// Invalidate drops one entry so the next lookup hits the source.
func (cache *Cache) Invalidate(name string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	delete(cache.entries, name)
}

// InvalidateAll drops every entry.
func (cache *Cache) InvalidateAll() {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries = make(map[string]entry)
}

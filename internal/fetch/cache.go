package fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/rmitchellscott/nimbus/internal/metrics"
)

// CachedFetcher wraps a Fetcher with an in-memory TTL cache keyed by the
// upper-cased station identifier. Only successful fetches are cached so
// failures are retried on the next call.
type CachedFetcher struct {
	inner   Fetcher
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	raw       string
	expiresAt time.Time
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner Fetcher, ttl time.Duration, opts ...Option) *CachedFetcher {
	o := newOptions(opts)
	return &CachedFetcher{
		inner:   inner,
		ttl:     ttl,
		clock:   o.clock,
		logger:  o.logger.Named("metar-cache"),
		metrics: o.metrics,
		entries: make(map[string]cacheEntry),
	}
}

// FetchMETAR returns a cached report when one is fresh and asks the wrapped
// fetcher otherwise.
func (c *CachedFetcher) FetchMETAR(ctx context.Context, stationID string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(stationID))

	if raw, ok := c.get(key); ok {
		c.metrics.ObserveCache(true)
		return raw, nil
	}
	c.metrics.ObserveCache(false)

	raw, err := c.inner.FetchMETAR(ctx, key)
	if err != nil {
		return "", err
	}

	c.put(key, raw)
	return raw, nil
}

func (c *CachedFetcher) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.raw, true
}

func (c *CachedFetcher) put(key, raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	c.entries[key] = cacheEntry{raw: raw, expiresAt: expiresAt}

	c.logger.Debug("METAR cached",
		zap.String("station", key),
		zap.Time("expires_at", expiresAt))
}

// Purge drops every cached report.
func (c *CachedFetcher) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Package cache implements the research cache: a content-addressed,
// TTL-bound store for expensive lookups (profile enrichment, similarity
// queries, pattern summaries). Keys are SHA-256 hashes of normalized query
// text; values are CacheEntry records with hit accounting.
//
// The cache handle is injected into components at construction. There is no
// package-level client: that keeps lifecycles explicit and the cache
// trivially mockable in tests.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/pkg/logger"
	"github.com/ignite/outreach-engine/internal/pkg/metrics"
)

// store is the minimal key-value surface the cache needs from its backend.
type store interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	del(ctx context.Context, keys ...string) error
	keys(ctx context.Context, prefix string) ([]string, error)
}

// Cache is the research cache. Writes are last-write-wins: concurrent
// computations of the same key produce identical content, so duplicate work
// is an acceptable cost and no locking is needed.
type Cache struct {
	store   store
	prefix  string
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source. Tests use this to cross TTL
// boundaries without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a research cache. If client is nil the cache runs on an
// in-process map, which preserves semantics (TTL, hit accounting, sweep)
// for single-node deployments and tests.
func New(client *redis.Client, prefix string, m *metrics.Metrics, opts ...Option) *Cache {
	var s store
	if client != nil {
		s = &redisStore{client: client}
	} else {
		s = newMemoryStore()
	}
	c := &Cache{
		store:   s,
		prefix:  prefix,
		metrics: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeKey converts query text into the content address used as the
// cache key: lowercase, whitespace-collapsed, SHA-256 hex.
func NormalizeKey(queryText string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(queryText)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) key(queryHash string) string {
	return c.prefix + ":" + queryHash
}

// Get looks up the entry for queryText. A logically expired entry is
// deleted and reported as a miss: callers must recompute. On a hit the
// entry's HitCount and LastAccessedAt are updated in place, preserving the
// original expiry.
func (c *Cache) Get(ctx context.Context, queryText string) (*domain.CacheEntry, bool, error) {
	hash := NormalizeKey(queryText)
	raw, err := c.store.get(ctx, c.key(hash))
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if raw == nil {
		c.miss()
		return nil, false, nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt payload: drop it and treat as a miss
		logger.Warn("cache: dropping unreadable entry", "hash", hash, "error", err)
		_ = c.store.del(ctx, c.key(hash))
		c.miss()
		return nil, false, nil
	}

	now := c.now()
	if entry.Expired(now) {
		_ = c.store.del(ctx, c.key(hash))
		c.miss()
		return nil, false, nil
	}

	entry.HitCount++
	entry.LastAccessedAt = now
	if updated, err := json.Marshal(entry); err == nil {
		_ = c.store.set(ctx, c.key(hash), updated, entry.ExpiresAt.Sub(now))
	}

	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return &entry, true, nil
}

func (c *Cache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Put stores a freshly computed result under queryText's content address.
// results must be JSON-serializable; source names the component that
// computed it.
func (c *Cache) Put(ctx context.Context, queryText, source string, results any, ttl time.Duration) (*domain.CacheEntry, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("cache put: marshal results: %w", err)
	}

	now := c.now()
	entry := domain.CacheEntry{
		QueryHash:      NormalizeKey(queryText),
		QueryText:      queryText,
		Results:        payload,
		Source:         source,
		ExpiresAt:      now.Add(ttl),
		HitCount:       0,
		LastAccessedAt: now,
		CreatedAt:      now,
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("cache put: marshal entry: %w", err)
	}
	if err := c.store.set(ctx, c.key(entry.QueryHash), raw, ttl); err != nil {
		return nil, fmt.Errorf("cache put: %w", err)
	}
	return &entry, nil
}

// GetResults is a typed convenience over Get: on a hit it unmarshals the
// opaque payload into dst and returns true.
func (c *Cache) GetResults(ctx context.Context, queryText string, dst any) (bool, error) {
	entry, ok, err := c.Get(ctx, queryText)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(entry.Results, dst); err != nil {
		return false, fmt.Errorf("cache: unmarshal results: %w", err)
	}
	return true, nil
}

// Stats summarizes the cache population for the dashboard.
type Stats struct {
	Entries   int `json:"entries"`
	TotalHits int `json:"total_hits"`
	Expired   int `json:"expired"`
}

// Stats scans the cache keyspace and aggregates entry counts and hits.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.store.keys(ctx, c.prefix+":")
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	var stats Stats
	now := c.now()
	for _, key := range keys {
		raw, err := c.store.get(ctx, key)
		if err != nil || raw == nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Expired(now) {
			stats.Expired++
			continue
		}
		stats.Entries++
		stats.TotalHits += entry.HitCount
	}
	return stats, nil
}

// Sweep physically deletes logically expired entries. Redis TTLs handle
// most eviction; the sweep covers entries whose payload expiry and store
// TTL drifted apart, and the in-memory backend. Returns how many entries
// were removed.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	keys, err := c.store.keys(ctx, c.prefix+":")
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}

	removed := 0
	now := c.now()
	for _, key := range keys {
		raw, err := c.store.get(ctx, key)
		if err != nil || raw == nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Expired(now) {
			if delErr := c.store.del(ctx, key); delErr == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		if c.metrics != nil {
			c.metrics.CacheSweepsTotal.Add(float64(removed))
		}
		logger.Info("cache: sweep removed expired entries", "removed", removed)
	}
	return removed, nil
}

// Package cache is the cache-aside layer for analytics responses.
//
// Reads and writes never surface errors: any backend failure behaves as
// a miss (the caller recomputes) or a dropped write. Correctness of
// analytics responses never depends on cache availability.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/habitflow/backend/internal/logger"
	"github.com/habitflow/backend/internal/models"
)

// Per-endpoint TTLs. Short for data that changes on every check-in,
// longer for expensive, rarely-changing aggregates.
var endpointTTLs = map[string]time.Duration{
	EndpointOverview:     2 * time.Minute,
	EndpointBreakdown:    5 * time.Minute,
	EndpointHeatmap:      10 * time.Minute,
	EndpointHabitStats:   5 * time.Minute,
	EndpointLeaderboard:  2 * time.Minute,
	EndpointInsights:     10 * time.Minute,
	EndpointCategories:   10 * time.Minute,
	EndpointComparison:   5 * time.Minute,
	EndpointProductivity: 10 * time.Minute,
	EndpointPerformance:  15 * time.Minute,
	EndpointCorrelations: 30 * time.Minute,
	EndpointRisk:         5 * time.Minute,
}

const defaultTTL = 5 * time.Minute

// TTLFor returns the TTL for an analytics endpoint
func TTLFor(endpoint string) time.Duration {
	if ttl, ok := endpointTTLs[endpoint]; ok {
		return ttl
	}
	return defaultTTL
}

const (
	memoryReapInterval = time.Minute
	redisProbeInterval = 15 * time.Second
)

// Cache is the dual-backend cache-aside layer. It prefers the shared
// redis store when one is configured and reachable, and falls back to an
// in-process expiring map otherwise. Backend selection is a single
// global decision made per call; the two backends are never mixed
// within one operation.
type Cache struct {
	remote *redisStore
	local  *memoryStore

	// remote connectivity state; re-probed at most every
	// redisProbeInterval once marked down
	remoteHealthy atomic.Bool
	probeMu       sync.Mutex
	lastProbe     time.Time

	hits          atomic.Int64
	misses        atomic.Int64
	sets          atomic.Int64
	invalidations atomic.Int64
}

// New creates the cache layer. client may be nil, in which case only the
// in-process backend is used.
func New(client *redis.Client) *Cache {
	c := &Cache{
		local: newMemoryStore(memoryReapInterval),
	}
	if client != nil {
		c.remote = &redisStore{client: client}
		c.remoteHealthy.Store(true)
	}
	return c
}

// Close stops the in-process reaper. The redis client is owned by the
// caller.
func (c *Cache) Close() {
	c.local.Close()
}

// useRemote decides the backend for one call based on current
// connectivity, re-probing a downed remote at most once per interval.
func (c *Cache) useRemote(ctx context.Context) bool {
	if c.remote == nil {
		return false
	}
	if c.remoteHealthy.Load() {
		return true
	}

	c.probeMu.Lock()
	defer c.probeMu.Unlock()
	if time.Since(c.lastProbe) < redisProbeInterval {
		return false
	}
	c.lastProbe = time.Now()

	if err := c.remote.Ping(ctx); err != nil {
		return false
	}
	c.remoteHealthy.Store(true)
	return true
}

func (c *Cache) markRemoteDown(err error) {
	if c.remoteHealthy.CompareAndSwap(true, false) {
		logger.Warn("cache: remote store unreachable, falling back to in-process map",
			logger.Err(err),
		)
	}
}

// Get returns the cached payload for key, or (nil, false) on a miss.
// Backend failures count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	var (
		payload []byte
		found   bool
	)

	if c.useRemote(ctx) {
		var err error
		payload, found, err = c.remote.Get(ctx, key)
		if err != nil {
			c.markRemoteDown(err)
			found = false
		}
	} else {
		payload, found = c.local.Get(ctx, key)
	}

	if found {
		c.hits.Add(1)
		return payload, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set stores a payload under key for the endpoint's TTL. Failures are
// dropped silently.
func (c *Cache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if c.useRemote(ctx) {
		if err := c.remote.Set(ctx, key, payload, ttl); err != nil {
			c.markRemoteDown(err)
			return
		}
	} else {
		c.local.Set(ctx, key, payload, ttl)
	}
	c.sets.Add(1)
}

// InvalidateUser deletes every cached analytics entry for the user. A
// single log change can affect nearly every cross-habit dashboard, so
// invalidation is always user-wide.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) {
	prefix := UserPrefix(userID)

	if c.useRemote(ctx) {
		if _, err := c.remote.DeleteByPrefix(ctx, prefix); err != nil {
			c.markRemoteDown(err)
		}
	} else {
		c.local.DeleteByPrefix(ctx, prefix)
	}
	c.invalidations.Add(1)
}

// Metrics returns a snapshot of the monotonically increasing counters
func (c *Cache) Metrics() models.CacheMetrics {
	return models.CacheMetrics{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Sets:          c.sets.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// Package cache keeps serialized parse results in Redis. Keys combine a
// fingerprint of the parser configuration with a hash of the raw query, so
// a configuration change never serves stale trees.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/resilience"
)

const keyPrefix = "qparse:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Options configures a ParseCache. Breaker and Metrics are optional.
type Options struct {
	TTL         time.Duration
	Fingerprint string
	Breaker     *resilience.CircuitBreaker
	Metrics     *metrics.Metrics
}

// ParseCache stores serialized parse results keyed by config fingerprint
// and query hash.
type ParseCache struct {
	store   Store
	opts    Options
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	skipped atomic.Int64
}

func New(store Store, opts Options) *ParseCache {
	return &ParseCache{
		store:  store,
		opts:   opts,
		logger: slog.Default().With("component", "parse-cache"),
	}
}

// Fingerprint hashes everything that changes parse output.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Get returns the cached document for query. Store errors count as a miss.
func (c *ParseCache) Get(ctx context.Context, query string) ([]byte, bool) {
	key := c.buildKey(query)
	var data []byte
	err := c.guard(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.skipped.Add(1)
		return nil, false
	}
	if data == nil {
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "key", key)
	return data, true
}

// Set stores doc for query. Failures are logged, never returned.
func (c *ParseCache) Set(ctx context.Context, query string, doc []byte) {
	key := c.buildKey(query)
	err := c.guard(ctx, func(ctx context.Context) error {
		return c.store.Set(ctx, key, doc, c.opts.TTL)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached document for query or computes, stores
// and returns it. Concurrent misses for one key compute once. A Redis
// outage degrades to computing every time.
func (c *ParseCache) GetOrCompute(ctx context.Context, query string, compute func() ([]byte, error)) ([]byte, bool, error) {
	if doc, ok := c.Get(ctx, query); ok {
		return doc, true, nil
	}
	val, err, _ := c.group.Do(c.buildKey(query), func() (any, error) {
		doc, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, doc)
		return doc, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

// Invalidate removes every cached parse, whatever its fingerprint.
func (c *ParseCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.guard(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = c.store.DeleteByPrefix(ctx, keyPrefix)
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating parse cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

type Stats struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Skipped int64  `json:"skipped"`
	Breaker string `json:"breaker,omitempty"`
}

func (c *ParseCache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Skipped: c.skipped.Load()}
	if c.opts.Breaker != nil {
		s.Breaker = c.opts.Breaker.State().String()
	}
	return s
}

func (c *ParseCache) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.opts.Breaker == nil {
		return fn(ctx)
	}
	return c.opts.Breaker.ExecuteContext(ctx, fn)
}

func (c *ParseCache) hit() {
	c.hits.Add(1)
	if c.opts.Metrics != nil {
		c.opts.Metrics.CacheHitsTotal.Inc()
	}
}

func (c *ParseCache) miss() {
	c.misses.Add(1)
	if c.opts.Metrics != nil {
		c.opts.Metrics.CacheMissesTotal.Inc()
	}
}

// buildKey keeps the raw query byte-exact: whitespace and case are
// significant to the parser.
func (c *ParseCache) buildKey(query string) string {
	hash := sha256.Sum256([]byte(query))
	return keyPrefix + c.opts.Fingerprint + ":" + hex.EncodeToString(hash[:16])
}

// Package cache is the Redis-backed result cache in front of the ranking
// engine. Concurrent requests for the same key collapse into a single
// computation via singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/tidesearch/tidesearch/internal/search"
	"github.com/tidesearch/tidesearch/pkg/config"
	"github.com/tidesearch/tidesearch/pkg/metrics"
	pkgredis "github.com/tidesearch/tidesearch/pkg/redis"
)

const keyPrefix = "rank:"

// ResultCache caches fully ranked results. Entries are keyed by the query,
// the ranking options, and the index and configuration revisions, so a
// reindex or a settings change simply stops hitting old entries.
type ResultCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *ResultCache {
	return &ResultCache{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "result-cache"),
	}
}

func (c *ResultCache) Get(ctx context.Context, key string) (*search.Result, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result search.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return &result, true
}

func (c *ResultCache) Set(ctx context.Context, key string, result *search.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for the key or runs computeFn once,
// caching its result. The second return reports whether it was a cache hit.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() (*search.Result, error),
) (*search.Result, bool, error) {
	if result, ok := c.Get(ctx, key); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, key); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*search.Result), false, nil
}

// Invalidate drops every cached result.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("result cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Key derives the cache key for a query under the given options and
// revisions. The raw query is only whitespace-trimmed: term order changes
// proximity, so two orderings of the same words are distinct entries.
func Key(query string, opts search.Options, indexRev, configRev uint64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "q=%s|l=%d|o=%d|s=%s", strings.TrimSpace(query), opts.Limit, opts.Offset, opts.Strategy)
	if opts.Sort != nil {
		dir := "asc"
		if opts.Sort.Descending {
			dir = "desc"
		}
		fmt.Fprintf(&sb, "|sort=%s:%s", opts.Sort.Field, dir)
	}
	fmt.Fprintf(&sb, "|sc=%t|sd=%t|ex=%t|ir=%d|cr=%d",
		opts.WithScore, opts.WithScoreDetails, opts.ExhaustiveCount, indexRev, configRev)
	hash := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

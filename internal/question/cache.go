package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultCacheTTL = 5 * time.Minute
	poolKeyPrefix   = "itembank:pool:"
)

// PoolCache stores per (track, band) question pools. A miss returns nil, nil;
// a cached empty pool is a non-nil empty slice.
type PoolCache interface {
	GetPool(ctx context.Context, track Track, band Band) ([]Question, error)
	SetPool(ctx context.Context, track Track, band Band, pool []Question) error
	// Invalidate drops every cached pool and reports how many were removed.
	Invalidate(ctx context.Context) (int, error)
}

// RedisPoolCache provides Redis-backed pool caching to offload the SQL bank.
type RedisPoolCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PoolCache = (*RedisPoolCache)(nil)

func NewRedisPoolCache(client *redis.Client, ttl time.Duration) *RedisPoolCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisPoolCache{client: client, ttl: ttl}
}

func (c *RedisPoolCache) key(track Track, band Band) string {
	b := string(band)
	if b == "" {
		b = "all"
	}
	return poolKeyPrefix + strings.Join([]string{string(track), b}, ":")
}

func (c *RedisPoolCache) GetPool(ctx context.Context, track Track, band Band) ([]Question, error) {
	data, err := c.client.Get(ctx, c.key(track, band)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var pool []Question
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, err
	}
	return pool, nil
}

func (c *RedisPoolCache) SetPool(ctx context.Context, track Track, band Band, pool []Question) error {
	if pool == nil {
		pool = []Question{}
	}
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(track, band), data, c.ttl).Err()
}

func (c *RedisPoolCache) Invalidate(ctx context.Context) (int, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, poolKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan pool keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete pool keys: %w", err)
	}
	return int(n), nil
}

// CachedBank is a read-through cache in front of another Bank. Cache failures
// are logged and fall back to the inner bank.
type CachedBank struct {
	inner  Bank
	cache  PoolCache
	logger zerolog.Logger
}

var _ Bank = (*CachedBank)(nil)

func NewCachedBank(inner Bank, cache PoolCache, logger zerolog.Logger) *CachedBank {
	return &CachedBank{
		inner:  inner,
		cache:  cache,
		logger: logger.With().Str("component", "itembank_cache").Logger(),
	}
}

func (b *CachedBank) QuestionsForTrackAndBand(ctx context.Context, track Track, band Band) ([]Question, error) {
	pool, err := b.cache.GetPool(ctx, track, band)
	if err != nil {
		b.logger.Warn().Err(err).Str("track", string(track)).Str("band", string(band)).Msg("pool cache read failed")
	} else if pool != nil {
		cacheLookups.WithLabelValues("hit").Inc()
		return pool, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	pool, err = b.inner.QuestionsForTrackAndBand(ctx, track, band)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = []Question{}
	}
	if err := b.cache.SetPool(ctx, track, band, pool); err != nil {
		b.logger.Warn().Err(err).Str("track", string(track)).Str("band", string(band)).Msg("pool cache write failed")
	}
	return pool, nil
}

// QuestionByID always reads through; single-question lookups are keyed by
// primary key and cheap.
func (b *CachedBank) QuestionByID(ctx context.Context, id string) (Question, error) {
	return b.inner.QuestionByID(ctx, id)
}

// Invalidate clears the pool cache after the bank has been rewritten.
func (b *CachedBank) Invalidate(ctx context.Context) error {
	n, err := b.cache.Invalidate(ctx)
	if err != nil {
		return err
	}
	b.logger.Info().Int("pools", n).Msg("pool cache invalidated")
	return nil
}

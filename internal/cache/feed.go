// Package cache holds the public feed cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/blog-api/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultFeedTTL bounds how stale a cached feed page can get.
	DefaultFeedTTL = 30 * time.Second

	generationKey = "blog:feed:gen"
)

// FeedCache stores rendered public feed pages.
//
// Get reports the generation it looked under. Callers pass that generation
// back to Set, so a page read from the store before an Invalidate lands under
// the old generation and is never served.
type FeedCache interface {
	Get(ctx context.Context, page, limit int) (feed *models.FeedPage, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, page, limit int, feed *models.FeedPage) error
	Invalidate(ctx context.Context) error
}

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisFeedCache keys pages by a generation counter. Invalidate bumps the
// counter so every page written before it becomes unreachable and expires on
// its own TTL.
type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFeedCache wraps client. A non-positive ttl uses DefaultFeedTTL.
func NewRedisFeedCache(client *redis.Client, ttl time.Duration) *RedisFeedCache {
	if ttl <= 0 {
		ttl = DefaultFeedTTL
	}
	return &RedisFeedCache{client: client, ttl: ttl}
}

// Get returns the cached page, or ok=false on a miss.
func (c *RedisFeedCache) Get(ctx context.Context, page, limit int) (*models.FeedPage, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.client.Get(ctx, pageKey(gen, page, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("failed to read feed page: %w", err)
	}

	var feed models.FeedPage
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, gen, false, fmt.Errorf("failed to decode feed page: %w", err)
	}
	return &feed, gen, true, nil
}

// Set stores feed under gen, the generation returned by the Get that missed.
func (c *RedisFeedCache) Set(ctx context.Context, gen int64, page, limit int, feed *models.FeedPage) error {
	data, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("failed to encode feed page: %w", err)
	}

	if err := c.client.Set(ctx, pageKey(gen, page, limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write feed page: %w", err)
	}
	return nil
}

// Invalidate drops every cached page.
func (c *RedisFeedCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump feed generation: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisFeedCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisFeedCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read feed generation: %w", err)
	}
	return gen, nil
}

func pageKey(gen int64, page, limit int) string {
	return fmt.Sprintf("blog:feed:g%d:p%d:l%d", gen, page, limit)
}

// NoopFeedCache always misses. Used when Redis is not configured.
type NoopFeedCache struct{}

func (NoopFeedCache) Get(context.Context, int, int) (*models.FeedPage, int64, bool, error) {
	return nil, 0, false, nil
}

func (NoopFeedCache) Set(context.Context, int64, int, int, *models.FeedPage) error { return nil }

func (NoopFeedCache) Invalidate(context.Context) error { return nil }

var (
	_ FeedCache = (*RedisFeedCache)(nil)
	_ FeedCache = NoopFeedCache{}
)

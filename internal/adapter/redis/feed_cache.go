package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

const feedCacheKey = "feed:posts"

// FeedCache keeps the reshaped post list as one JSON value with a TTL.
type FeedCache struct {
	rdb     goredis.Cmdable
	metrics *metrics.CacheMetrics
}

func NewFeedCache(rdb goredis.Cmdable, m *metrics.CacheMetrics) *FeedCache {
	return &FeedCache{rdb: rdb, metrics: m}
}

func (c *FeedCache) Get(ctx context.Context) ([]domain.Post, bool, error) {
	raw, err := c.rdb.Get(ctx, feedCacheKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		c.metrics.Miss()
		return nil, false, nil
	}
	if err != nil {
		c.metrics.Error("get")
		return nil, false, fmt.Errorf("failed to read feed cache: %w", err)
	}

	var posts []domain.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.metrics.Error("decode")
		return nil, false, fmt.Errorf("failed to decode feed cache: %w", err)
	}

	c.metrics.Hit()
	return posts, true, nil
}

func (c *FeedCache) Set(ctx context.Context, posts []domain.Post, ttl time.Duration) error {
	if posts == nil {
		posts = []domain.Post{}
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("failed to encode feed cache: %w", err)
	}

	if err := c.rdb.Set(ctx, feedCacheKey, raw, ttl).Err(); err != nil {
		c.metrics.Error("set")
		return fmt.Errorf("failed to write feed cache: %w", err)
	}
	return nil
}

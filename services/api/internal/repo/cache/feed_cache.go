package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"framefeed/pkg/logger"
	"framefeed/services/api/internal/entity"

	"github.com/redis/go-redis/v9"
)

const feedKeyPrefix = "feed:"

// FeedCache holds first pages of the public feed. Misses and redis errors
// look the same to callers.
type FeedCache interface {
	Get(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, bool)
	Set(ctx context.Context, filter entity.PostFilter, posts []*entity.Post)
	Invalidate(ctx context.Context)
}

type redisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewFeedCache returns a no-op cache when client is nil or ttl is not positive.
func NewFeedCache(client *redis.Client, ttl time.Duration, log *logger.Logger) FeedCache {
	if client == nil || ttl <= 0 {
		return noopFeedCache{}
	}
	return &redisFeedCache{client: client, ttl: ttl, logger: log}
}

// Cacheable reports whether a filter addresses a shared first page.
func Cacheable(filter entity.PostFilter) bool {
	return filter.UserID == "" && filter.Offset == 0
}

func FeedKey(filter entity.PostFilter) string {
	return fmt.Sprintf("%s%s:%d", feedKeyPrefix, filter.Tag, filter.Limit)
}

func (c *redisFeedCache) Get(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, bool) {
	if !Cacheable(filter) {
		return nil, false
	}

	data, err := c.client.Get(ctx, FeedKey(filter)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("[FEED_CACHE] get failed: %v", err)
		}
		return nil, false
	}

	var posts []*entity.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		c.logger.Warn("[FEED_CACHE] corrupt entry %s: %v", FeedKey(filter), err)
		return nil, false
	}
	return posts, true
}

func (c *redisFeedCache) Set(ctx context.Context, filter entity.PostFilter, posts []*entity.Post) {
	if !Cacheable(filter) {
		return
	}

	data, err := json.Marshal(posts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, FeedKey(filter), data, c.ttl).Err(); err != nil {
		c.logger.Warn("[FEED_CACHE] set failed: %v", err)
	}
}

func (c *redisFeedCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, feedKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("[FEED_CACHE] scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("[FEED_CACHE] invalidate failed: %v", err)
	}
}

type noopFeedCache struct{}

func (noopFeedCache) Get(context.Context, entity.PostFilter) ([]*entity.Post, bool) { return nil, false }
func (noopFeedCache) Set(context.Context, entity.PostFilter, []*entity.Post)        {}
func (noopFeedCache) Invalidate(context.Context)                                    {}

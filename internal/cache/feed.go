package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// FeedCacheKey is the sorted set holding the public timeline. The feed is
	// unscoped, so one key serves every viewer.
	FeedCacheKey = "feed:global"

	// FeedCacheCap is the maximum number of posts kept in the timeline cache
	FeedCacheCap = 1000

	// FeedCacheTTL is refreshed on every write and read
	FeedCacheTTL = 7 * 24 * time.Hour
)

// PostScore represents a post with its timestamp score for caching
type PostScore struct {
	PostID    int64
	Timestamp int64 // Unix timestamp
}

// FeedCache is the public-timeline cache. An interface so services and
// workers can be tested with an in-memory fake.
type FeedCache interface {
	// AddPost adds a post to the timeline.
	// Pipeline: ZADD + ZREMRANGEBYRANK (maintain cap) + EXPIRE (refresh TTL)
	AddPost(ctx context.Context, postID int64, timestamp int64) error

	// RemovePost removes a post from the timeline (ZREM).
	RemovePost(ctx context.Context, postID int64) error

	// GetPage retrieves post IDs from the timeline, newest first.
	// A nil cursor starts from the top; otherwise posts older than the cursor
	// score are returned.
	GetPage(ctx context.Context, cursorScore *float64, limit int) (postIDs []int64, scores []float64, err error)

	// Warm bulk-inserts posts (pipelined ZADD + EXPIRE).
	Warm(ctx context.Context, posts []PostScore) error

	// Exists reports whether the timeline key is present. False means new
	// deployment or TTL expiry; the service should warm it.
	Exists(ctx context.Context) (bool, error)
}

// RedisFeedCache implements FeedCache using a Redis Sorted Set.
type RedisFeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a FeedCache backed by Redis.
func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client}
}

// AddPost adds a post to the timeline using a pipeline.
func (c *RedisFeedCache) AddPost(ctx context.Context, postID int64, timestamp int64) error {
	pipe := c.client.Pipeline()

	pipe.ZAdd(ctx, FeedCacheKey, redis.Z{
		Score:  float64(timestamp),
		Member: strconv.FormatInt(postID, 10),
	})

	// Keep the newest FeedCacheCap entries, drop the rest
	pipe.ZRemRangeByRank(ctx, FeedCacheKey, 0, int64(-FeedCacheCap-1))

	pipe.Expire(ctx, FeedCacheKey, FeedCacheTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		log.Printf("[FeedCache] AddPost FAILED: post=%d err=%v", postID, err)
		return fmt.Errorf("add post to feed: %w", err)
	}

	log.Printf("[FeedCache] AddPost OK: post=%d timestamp=%d", postID, timestamp)
	return nil
}

// RemovePost removes a post from the timeline.
func (c *RedisFeedCache) RemovePost(ctx context.Context, postID int64) error {
	member := strconv.FormatInt(postID, 10)

	removed, err := c.client.ZRem(ctx, FeedCacheKey, member).Result()
	if err != nil {
		log.Printf("[FeedCache] RemovePost FAILED: post=%d err=%v", postID, err)
		return fmt.Errorf("remove post from feed: %w", err)
	}

	log.Printf("[FeedCache] RemovePost OK: post=%d removed=%d", postID, removed)
	return nil
}

// GetPage retrieves post IDs from the timeline.
func (c *RedisFeedCache) GetPage(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
	var results []redis.Z
	var err error

	if cursorScore == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, FeedCacheKey, 0, int64(limit-1)).Result()
	} else {
		// "(" prefix makes the upper bound exclusive
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, FeedCacheKey, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    fmt.Sprintf("(%f", *cursorScore),
			Offset: 0,
			Count:  int64(limit),
		}).Result()
	}

	if err != nil {
		log.Printf("[FeedCache] GetPage FAILED: err=%v", err)
		return nil, nil, fmt.Errorf("get feed page: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, FeedCacheKey, FeedCacheTTL)

	postIDs := make([]int64, len(results))
	scores := make([]float64, len(results))
	for i, z := range results {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			log.Printf("[FeedCache] GetPage parse error: member=%v err=%v", z.Member, err)
			return nil, nil, fmt.Errorf("parse post id: %w", err)
		}
		postIDs[i] = id
		scores[i] = z.Score
	}

	return postIDs, scores, nil
}

// Warm bulk-inserts posts into the timeline using a pipeline.
func (c *RedisFeedCache) Warm(ctx context.Context, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: strconv.FormatInt(p.PostID, 10),
		}
	}
	pipe.ZAdd(ctx, FeedCacheKey, members...)
	pipe.ZRemRangeByRank(ctx, FeedCacheKey, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, FeedCacheKey, FeedCacheTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		log.Printf("[FeedCache] Warm FAILED: posts=%d err=%v", len(posts), err)
		return fmt.Errorf("warm feed cache: %w", err)
	}

	log.Printf("[FeedCache] Warm OK: posts=%d", len(posts))
	return nil
}

// Exists checks if the timeline key is present.
func (c *RedisFeedCache) Exists(ctx context.Context) (bool, error) {
	exists, err := c.client.Exists(ctx, FeedCacheKey).Result()
	if err != nil {
		log.Printf("[FeedCache] Exists FAILED: err=%v", err)
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return exists > 0, nil
}

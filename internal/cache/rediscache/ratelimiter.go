package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// FetchMinuteKey is the rate-limit counter key for carrier fetches in the
// minute containing t. One counter per minute keeps the limiter window
// aligned across all cycle workers.
func FetchMinuteKey(t time.Time) string {
	return "rl:bluedart:" + t.UTC().Format("200601021504")
}

type RateLimiter struct {
	c *redis.Client
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Allow increments the counter under key and sets the TTL when the key is
// created. Returns (allowed, current count).
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= limit, n, nil
}

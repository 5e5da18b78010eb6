// Package rediscache holds the redis-backed pieces: a byte cache used for
// short-lived tracking page caching and the fetch rate limiter.
package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	c *redis.Client
}

func New(addr string) *Cache {
	return &Cache{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return b, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.c.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (c *Cache) Close() error {
	return c.c.Close()
}

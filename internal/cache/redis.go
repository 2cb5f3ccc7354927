package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions — параметры клиента Redis.
type RedisOptions struct {
	URL          string
	Prefix       string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Redis — TokenCache поверх go-redis.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "diary:auth:".
func NewRedisCache(ctx context.Context, opts RedisOptions) (*Redis, error) {
	const op = "cache.redis.NewRedisCache"

	if opts.Prefix == "" {
		opts.Prefix = "diary:auth:"
	}

	opt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if opts.DialTimeout > 0 {
		opt.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		opt.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		opt.WriteTimeout = opts.WriteTimeout
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Redis{rdb: rdb, prefix: opts.Prefix}, nil
}

func (c *Redis) key(k string) string { return c.prefix + k }

func (c *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, err
	}

	return v, true, nil
}

func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	return c.rdb.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *Redis) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key(key)).Err()
}

// Ping проверяет доступность Redis (readiness).
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error { return c.rdb.Close() }

var _ TokenCache = (*Redis)(nil)

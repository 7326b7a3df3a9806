package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 200

// Redis is a Cache backed by a Redis instance. Keys are namespaced by a
// prefix so ClearAll only touches this application's entries.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing Redis client. An empty prefix defaults to
// "queries:v1:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "queries:v1:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Get returns the cached value or ErrMiss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key. A zero ttl means no expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// ClearAll deletes every key under the prefix.
func (r *Redis) ClearAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("cache: scan: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: delete: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

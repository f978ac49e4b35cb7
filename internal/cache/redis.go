package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache interface using Redis
type RedisCache struct {
	client *redis.Client
	config *Config
}

// NewRedisCache connects to Redis and verifies the connection with a ping
func NewRedisCache(ctx context.Context, config *Config) (*RedisCache, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	client := redis.NewClient(config.options())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		config: config,
	}, nil
}

// Get retrieves a value from the cache
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, NewCacheError("failed to get key", true).WithError(err)
	}
	return val, nil
}

// Set stores a value in the cache with optional TTL
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// Use default TTL if not specified
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return NewCacheError("failed to set key", true).WithError(err)
	}
	return nil
}

// Exists checks if a key exists in the cache
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result := r.client.Exists(ctx, key)
	if err := result.Err(); err != nil {
		return false, NewCacheError("failed to check existence", true).WithError(err)
	}
	return result.Val() > 0, nil
}

// Incr atomically increments key
func (r *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, NewCacheError("failed to increment key", true).WithError(err)
	}
	return n, nil
}

// Ping checks if the cache is healthy
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return NewCacheError("ping failed", false).WithError(err)
	}
	return nil
}

// Close closes the cache connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// TTL returns the remaining time to live of a key
func (r *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, NewCacheError("failed to get TTL", true).WithError(err)
	}

	// Key doesn't exist
	if ttl == -2 {
		return 0, ErrKeyNotFound
	}

	// Key exists but has no TTL
	if ttl == -1 {
		return 0, nil
	}

	return ttl, nil
}

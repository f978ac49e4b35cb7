package cache

import (
	"context"
	"time"
)

// PrefixedCache scopes every key of an underlying cache under a namespace,
// so several services can share one Redis database.
type PrefixedCache struct {
	client Cache
	prefix string
}

// NewPrefixedCache wraps client so that key becomes "<prefix>:<key>"
func NewPrefixedCache(client Cache, prefix string) *PrefixedCache {
	return &PrefixedCache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the namespaced form of key
func (pc *PrefixedCache) Key(key string) string {
	if pc.prefix == "" {
		return key
	}
	return pc.prefix + ":" + key
}

func (pc *PrefixedCache) Get(ctx context.Context, key string) ([]byte, error) {
	return pc.client.Get(ctx, pc.Key(key))
}

func (pc *PrefixedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return pc.client.Set(ctx, pc.Key(key), value, ttl)
}

func (pc *PrefixedCache) Exists(ctx context.Context, key string) (bool, error) {
	return pc.client.Exists(ctx, pc.Key(key))
}

func (pc *PrefixedCache) Incr(ctx context.Context, key string) (int64, error) {
	return pc.client.Incr(ctx, pc.Key(key))
}

func (pc *PrefixedCache) Ping(ctx context.Context) error {
	return pc.client.Ping(ctx)
}

func (pc *PrefixedCache) Close() error {
	return pc.client.Close()
}

package sdk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// responseCache memoizes successful responses of selected endpoints.
// Entries expire after the configured TTL and the least recently used entry
// is evicted once the capacity is reached. Failures are never stored.
//
// It is safe for concurrent use and starts no goroutines. Concurrent misses
// for one key share a single network call, which is not tied to the
// cancellation of any one caller.
type responseCache struct {
	lru       *lru.Cache[string, cacheEntry]
	ttl       time.Duration
	timeout   time.Duration
	endpoints map[string]struct{}
	group     singleflight.Group
	observer  Observer
	now       func() time.Time
}

type cacheEntry struct {
	resp    Response
	expires time.Time
}

// newResponseCache returns nil when caching is disabled. A positive timeout
// bounds the shared call made on a miss.
func newResponseCache(cfg CacheConfig, timeout time.Duration, observer Observer) *responseCache {
	if !cfg.Enabled || len(cfg.Endpoints) == 0 {
		return nil
	}
	store, err := lru.New[string, cacheEntry](cfg.MaxEntries)
	if err != nil {
		return nil
	}
	endpoints := make(map[string]struct{}, len(cfg.Endpoints))
	for _, name := range cfg.Endpoints {
		endpoints[name] = struct{}{}
	}
	return &responseCache{
		lru:       store,
		ttl:       cfg.TTL,
		timeout:   timeout,
		endpoints: endpoints,
		observer:  observer,
		now:       time.Now,
	}
}

// cacheable reports whether responses of the named endpoint are memoized.
func (c *responseCache) cacheable(endpoint string) bool {
	if c == nil {
		return false
	}
	_, ok := c.endpoints[endpoint]
	return ok
}

// get returns a live entry and marks it as recently used. Expired entries
// are removed.
func (c *responseCache) get(key string) (Response, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		c.lru.Remove(key)
		return nil, false
	}
	return entry.resp, true
}

// fetch returns the cached response for req, or calls fn and stores its
// result when it succeeds. Callers always receive their own copy.
//
// On a miss fn runs on a context detached from ctx and bounded by the
// client timeout, so one caller giving up does not fail the others waiting
// on the same key. Each caller still returns as soon as its own ctx is done.
func (c *responseCache) fetch(ctx context.Context, req Request, fn func(context.Context) (Response, error)) (Response, error) {
	name := req.Endpoint().Name
	key := hashKey(name, req.Path(), req.params())

	if resp, ok := c.get(key); ok {
		c.observer.OnCacheHit(name)
		return deepCopyResponse(resp), nil
	}
	c.observer.OnCacheMiss(name)

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		callCtx := shared
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(shared, c.timeout)
			defer cancel()
		}

		resp, err := fn(callCtx)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, cacheEntry{resp: resp, expires: c.now().Add(c.ttl)})
		return resp, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return deepCopyResponse(res.Val.(Response)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// len returns the number of live entries.
func (c *responseCache) len() int {
	if c == nil {
		return 0
	}
	now := c.now()
	n := 0
	for _, entry := range c.lru.Values() {
		if now.Before(entry.expires) {
			n++
		}
	}
	return n
}

// purge drops every entry.
func (c *responseCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

func deepCopyResponse(r Response) Response {
	if r == nil {
		return nil
	}
	out := make(Response, len(r))
	for k, v := range r {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = deepCopyValue(inner)
		}
		return out
	case Response:
		return deepCopyResponse(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = deepCopyValue(inner)
		}
		return out
	default:
		return v
	}
}

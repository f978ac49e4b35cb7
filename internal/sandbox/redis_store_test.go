package sandbox

import (
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/rush-analytics/internal/cache"
	"github.com/birbparty/rush-analytics/internal/telemetry"
)

// fakeCache is an in-memory cache.Cache
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	pingErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, cache.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(string(f.data[key]), 10, 64)
	n++
	f.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (f *fakeCache) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeCache) Close() error { return nil }

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	store := NewRedisStore(cache.NewPrefixedCache(fc, "rush-sandbox"), time.Hour)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	task := NewTask(CreateTaskRequest{
		Name:          "Shoes",
		URL:           "https://shop.example.com",
		GoogleRegions: []map[string]interface{}{{"id": 2840}},
		Keywords:      []map[string]string{{"keyword": "running shoes"}},
	}, time.Now().Add(-time.Minute))
	require.NoError(t, store.Save(ctx, task))

	assert.Equal(t, time.Hour, fc.ttls["rush-sandbox:task:"+task.ID])

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "Shoes", got.Request.Name)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, task.Results(time.Now(), 0), got.Results(time.Now(), 0))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestHealthReportsStoreFailure(t *testing.T) {
	fc := newFakeCache()
	fc.pingErr = errors.New("connection refused")

	app := NewApp(testConfig(), NewRedisStore(fc, 0), telemetry.NewMetrics())

	status, body := doJSON(t, app, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, body["status"], "connection refused")
}

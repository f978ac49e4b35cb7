package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/birbparty/rush-analytics/internal/cache"
)

const taskCountKey = "tasks:count"

// RedisStore keeps tasks in a cache.Cache, normally Redis, so that several
// sandbox replicas can serve the same tasks.
type RedisStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisStore stores tasks in c. Tasks expire after ttl; zero uses the
// cache default.
func NewRedisStore(c cache.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func taskKey(id string) string {
	return "task:" + id
}

func (s *RedisStore) Save(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	if err := s.cache.Set(ctx, taskKey(task.ID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}
	if _, err := s.cache.Incr(ctx, taskCountKey); err != nil {
		return fmt.Errorf("failed to count task: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Task, error) {
	data, err := s.cache.Get(ctx, taskKey(id))
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	return &task, nil
}

// Count returns how many tasks were ever created, including expired ones.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	data, err := s.cache.Get(ctx, taskCountKey)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.Atoi(string(data))
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.cache.Close()
}

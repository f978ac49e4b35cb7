package sandbox

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task statuses
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// ErrTaskNotFound is returned when no task has the requested ID
var ErrTaskNotFound = errors.New("task not found")

// Task is a tracking task accepted by the sandbox.
type Task struct {
	ID        string            `json:"id"`
	Request   CreateTaskRequest `json:"request"`
	CreatedAt time.Time         `json:"created_at"`
}

// TaskStore persists sandbox tasks.
type TaskStore interface {
	// Save stores task under task.ID
	Save(ctx context.Context, task *Task) error

	// Get returns the task with id or ErrTaskNotFound
	Get(ctx context.Context, id string) (*Task, error)

	// Count returns the number of tasks created
	Count(ctx context.Context) (int, error)

	// Ping checks if the store is healthy
	Ping(ctx context.Context) error

	// Close releases the store
	Close() error
}

// NewTask builds a task for req with a fresh ID. The credential is not kept.
func NewTask(req CreateTaskRequest, now time.Time) *Task {
	req.APIKey = ""
	return &Task{
		ID:        uuid.NewString(),
		Request:   req,
		CreatedAt: now,
	}
}

// Status derives the task status from its age.
func (t *Task) Status(now time.Time, delay time.Duration) string {
	if now.Sub(t.CreatedAt) < delay {
		return StatusProcessing
	}
	return StatusCompleted
}

// Results generates positions for every keyword and region of the task.
// The numbers are derived from a hash, so repeated calls agree. A task
// that is still processing has no results.
func (t *Task) Results(now time.Time, delay time.Duration) []Position {
	results := []Position{}
	if t.Status(now, delay) != StatusCompleted {
		return results
	}

	regions := map[string][]map[string]interface{}{
		"google": t.Request.GoogleRegions,
		"yandex": t.Request.YandexRegions,
	}
	for _, kw := range t.Request.Keywords {
		for _, phrase := range kw {
			for _, engine := range []string{"google", "yandex"} {
				for _, region := range regions[engine] {
					regionID := fmt.Sprint(region["id"])
					results = append(results, Position{
						Keyword:  phrase,
						Engine:   engine,
						RegionID: regionID,
						Position: position(t.Request.URL, phrase, engine, regionID),
					})
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Keyword < results[j].Keyword
	})
	return results
}

func position(parts ...string) int {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return int(h.Sum32()%100) + 1
}

// MemoryStore keeps tasks in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*Task)}
}

func (s *MemoryStore) Save(ctx context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

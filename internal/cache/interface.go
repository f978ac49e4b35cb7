package cache

import (
	"context"
	"time"
)

// Cache defines the key-value operations the sandbox persists tasks with
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with optional TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Exists checks if a key exists in the cache
	Exists(ctx context.Context, key string) (bool, error)

	// Incr atomically increments the integer stored at key and returns the new value
	Incr(ctx context.Context, key string) (int64, error)

	// Ping checks if the cache is healthy
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// Common errors
var (
	ErrKeyNotFound = NewCacheError("key not found", true)
	ErrCacheClosed = NewCacheError("cache is closed", false)
)

// CacheError represents a cache-specific error
type CacheError struct {
	Message    string
	Retryable  bool
	Underlying error
}

// NewCacheError creates a new cache error
func NewCacheError(message string, retryable bool) *CacheError {
	return &CacheError{
		Message:   message,
		Retryable: retryable,
	}
}

// Error implements the error interface
func (e *CacheError) Error() string {
	if e.Underlying != nil {
		return e.Message + ": " + e.Underlying.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *CacheError) Unwrap() error {
	return e.Underlying
}

// WithError returns a copy of e wrapping err
func (e *CacheError) WithError(err error) *CacheError {
	c := *e
	c.Underlying = err
	return &c
}

// IsRetryable returns whether the error is retryable
func (e *CacheError) IsRetryable() bool {
	return e.Retryable
}

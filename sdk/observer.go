package sdk

import (
	"sync"
	"time"
)

// Observer provides hooks for monitoring SDK operations.
// Implement this interface to track performance metrics, debug issues,
// or integrate with your observability stack.
//
// Observer methods are called synchronously on the request path and
// should be fast and non-blocking.
//
// Example implementation:
//
//	type LogObserver struct {
//	    logger *log.Logger
//	}
//
//	func (o *LogObserver) OnRequestEnd(method, endpoint string, status int, duration time.Duration, err error) {
//	    o.logger.Printf("%s %s -> %d (took %v)", method, endpoint, status, duration)
//	}
type Observer interface {
	// OnRequestStart is called before an HTTP request is sent.
	//
	// Parameters:
	//   - method: HTTP method (GET, POST)
	//   - endpoint: Endpoint name (e.g., "task_status")
	OnRequestStart(method, endpoint string)

	// OnRequestEnd is called when an HTTP request completes.
	//
	// Parameters:
	//   - method: HTTP method
	//   - endpoint: Endpoint name
	//   - status: HTTP status code, 0 if no response was received
	//   - duration: Time taken for the request
	//   - err: Error if request failed, nil on success
	OnRequestEnd(method, endpoint string, status int, duration time.Duration, err error)

	// OnRetryAttempt is called before each retry wait.
	//
	// Parameters:
	//   - operation: Label given to the retried operation
	//   - attempt: Retry number (1, 2, ...)
	//   - delay: Delay before the retry
	//   - err: The error that triggered the retry
	OnRetryAttempt(operation string, attempt int, delay time.Duration, err error)

	// OnCacheHit is called when a cached response is served.
	OnCacheHit(endpoint string)

	// OnCacheMiss is called when a cache-eligible call goes to the network.
	OnCacheMiss(endpoint string)
}

// NoopObserver is a no-op implementation of Observer that does nothing.
// This is the default observer used when none is configured.
type NoopObserver struct{}

// OnRequestStart does nothing
func (n *NoopObserver) OnRequestStart(method, endpoint string) {}

// OnRequestEnd does nothing
func (n *NoopObserver) OnRequestEnd(method, endpoint string, status int, duration time.Duration, err error) {
}

// OnRetryAttempt does nothing
func (n *NoopObserver) OnRetryAttempt(operation string, attempt int, delay time.Duration, err error) {
}

// OnCacheHit does nothing
func (n *NoopObserver) OnCacheHit(endpoint string) {}

// OnCacheMiss does nothing
func (n *NoopObserver) OnCacheMiss(endpoint string) {}

// MetricsCollector is a simple in-memory metrics implementation.
// It counts requests, errors, retries and cache hits per endpoint.
//
// Note: This implementation stores all data in memory and is primarily
// intended for debugging and testing. The rushctl binary exports the same
// signals to Prometheus.
//
// Example:
//
//	metrics := sdk.NewMetricsCollector()
//	config := sdk.DefaultConfig().WithObserver(metrics)
//
//	client, _ := sdk.NewClient(config)
//	// Use client...
//
//	snapshot := metrics.GetMetrics()
//	fmt.Printf("Requests: %v\n", snapshot["requests"])
type MetricsCollector struct {
	mu             sync.RWMutex
	requestCount   map[string]int64
	latencies      map[string][]time.Duration
	errorCount     map[string]int64
	retryCount     map[string]int64
	cacheHitCount  int64
	cacheMissCount int64
}

// NewMetricsCollector creates a new metrics collector for tracking SDK operations.
// The collector is thread-safe and can be used concurrently.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		requestCount: make(map[string]int64),
		latencies:    make(map[string][]time.Duration),
		errorCount:   make(map[string]int64),
		retryCount:   make(map[string]int64),
	}
}

// OnRequestStart increments request count
func (m *MetricsCollector) OnRequestStart(method, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[method+" "+endpoint]++
}

// OnRequestEnd records request duration and errors
func (m *MetricsCollector) OnRequestEnd(method, endpoint string, status int, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + endpoint
	m.latencies[key] = append(m.latencies[key], duration)
	if err != nil {
		m.errorCount[key]++
	}
}

// OnRetryAttempt increments retry count
func (m *MetricsCollector) OnRetryAttempt(operation string, attempt int, delay time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount[operation]++
}

// OnCacheHit increments cache hit count
func (m *MetricsCollector) OnCacheHit(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHitCount++
}

// OnCacheMiss increments cache miss count
func (m *MetricsCollector) OnCacheMiss(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMissCount++
}

// Requests returns how many requests were started for method and endpoint.
func (m *MetricsCollector) Requests(method, endpoint string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount[method+" "+endpoint]
}

// GetMetrics returns a snapshot of current metrics.
// The returned map is a copy and safe to read without locks.
//
// The metrics include:
//   - "requests": Map of "METHOD endpoint" to request count
//   - "latencies": Map of "METHOD endpoint" to latency measurements
//   - "errors": Map of "METHOD endpoint" to error count
//   - "retries": Map of operation label to retry count
//   - "cache_hits": Total cache hits
//   - "cache_misses": Total cache misses
//   - "cache_hit_rate": Calculated hit rate (0.0 to 1.0)
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	requestsCopy := make(map[string]int64, len(m.requestCount))
	for k, v := range m.requestCount {
		requestsCopy[k] = v
	}

	latenciesCopy := make(map[string][]time.Duration, len(m.latencies))
	for k, v := range m.latencies {
		latenciesCopy[k] = append([]time.Duration(nil), v...)
	}

	errorsCopy := make(map[string]int64, len(m.errorCount))
	for k, v := range m.errorCount {
		errorsCopy[k] = v
	}

	retriesCopy := make(map[string]int64, len(m.retryCount))
	for k, v := range m.retryCount {
		retriesCopy[k] = v
	}

	cacheTotal := m.cacheHitCount + m.cacheMissCount
	cacheHitRate := float64(0)
	if cacheTotal > 0 {
		cacheHitRate = float64(m.cacheHitCount) / float64(cacheTotal)
	}

	return map[string]interface{}{
		"requests":       requestsCopy,
		"latencies":      latenciesCopy,
		"errors":         errorsCopy,
		"retries":        retriesCopy,
		"cache_hits":     m.cacheHitCount,
		"cache_misses":   m.cacheMissCount,
		"cache_hit_rate": cacheHitRate,
	}
}

// CompositeObserver allows multiple observers to be combined into one.
// All observer methods are called on each child observer in order.
// A panicking observer is isolated so the others still run.
//
// Example:
//
//	composite := sdk.NewCompositeObserver(logObserver, sdk.NewMetricsCollector())
//	config := sdk.DefaultConfig().WithObserver(composite)
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an observer that delegates to multiple observers.
func NewCompositeObserver(observers ...Observer) Observer {
	return &CompositeObserver{observers: observers}
}

func (c *CompositeObserver) each(fn func(Observer)) {
	for _, obs := range c.observers {
		func() {
			defer func() {
				// Observer panicked, ignore
				_ = recover()
			}()
			fn(obs)
		}()
	}
}

// OnRequestStart notifies all observers of request start.
func (c *CompositeObserver) OnRequestStart(method, endpoint string) {
	c.each(func(o Observer) { o.OnRequestStart(method, endpoint) })
}

// OnRequestEnd notifies all observers of request completion.
func (c *CompositeObserver) OnRequestEnd(method, endpoint string, status int, duration time.Duration, err error) {
	c.each(func(o Observer) { o.OnRequestEnd(method, endpoint, status, duration, err) })
}

// OnRetryAttempt notifies all observers
func (c *CompositeObserver) OnRetryAttempt(operation string, attempt int, delay time.Duration, err error) {
	c.each(func(o Observer) { o.OnRetryAttempt(operation, attempt, delay, err) })
}

// OnCacheHit notifies all observers
func (c *CompositeObserver) OnCacheHit(endpoint string) {
	c.each(func(o Observer) { o.OnCacheHit(endpoint) })
}

// OnCacheMiss notifies all observers
func (c *CompositeObserver) OnCacheMiss(endpoint string) {
	c.each(func(o Observer) { o.OnCacheMiss(endpoint) })
}

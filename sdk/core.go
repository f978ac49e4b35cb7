package sdk

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// core holds everything the blocking and non-blocking clients share. It is
// built from a private copy of the config, so the credential is fixed for
// its lifetime.
type core struct {
	apiKey    string
	transport *httpTransport
	cache     *responseCache

	mu     sync.RWMutex
	closed bool
}

func newCore(config *Config) (*core, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &core{
		apiKey:    config.APIKey,
		transport: newHTTPTransport(config),
		cache:     newResponseCache(config.Cache, config.Timeout, config.Observer),
	}, nil
}

// checkClosed checks if the client is closed
func (c *core) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	return nil
}

func (c *core) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.cache.purge()
	c.transport.close()
	return nil
}

// createTask validates the payload and posts it with the credential in the body.
func (c *core) createTask(ctx context.Context, name, taskURL string, opts ...TaskOption) (Response, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	payload, err := NewTaskPayload(name, taskURL, opts...)
	if err != nil {
		return nil, err
	}
	return c.submit(ctx, payload)
}

// checkPayload validates a payload built ahead of time with NewTaskPayload.
func (c *core) checkPayload(payload *TaskPayload) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if payload == nil {
		return NewValidationError("payload", "value is required")
	}
	return payload.Validate()
}

// submit posts an already validated payload.
func (c *core) submit(ctx context.Context, payload *TaskPayload) (Response, error) {
	path, err := EndpointCreateTask.Resolve(nil)
	if err != nil {
		return nil, err
	}
	body := createTaskBody{APIKey: c.apiKey, TaskPayload: payload}
	return c.execute(ctx, NewRequest(EndpointCreateTask, path, nil, body))
}

func (c *core) taskCall(ctx context.Context, endpoint Endpoint, taskID string) (Response, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, NewValidationError("task_id", "value is required")
	}
	return c.get(ctx, endpoint, map[string]string{"task_id": taskID})
}

// get performs a GET with the credential in the query string.
func (c *core) get(ctx context.Context, endpoint Endpoint, params map[string]string) (Response, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	path, err := endpoint.Resolve(params)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("apikey", c.apiKey)
	return c.execute(ctx, NewRequest(endpoint, path, query, nil))
}

// execute sends req, going through the cache for memoized endpoints.
func (c *core) execute(ctx context.Context, req Request) (Response, error) {
	call := func(ctx context.Context) (Response, error) {
		return c.transport.do(ctx, req)
	}
	if c.cache.cacheable(req.Endpoint().Name) {
		return c.cache.fetch(ctx, req, call)
	}
	return call(ctx)
}

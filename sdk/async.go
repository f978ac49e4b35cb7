package sdk

import (
	"context"
)

// AsyncClient is the non-blocking Rush Analytics client. Each method starts
// the call on its own goroutine and returns a Future at once. Results and
// errors are exactly those of the blocking Client.
//
// Example:
//
//	client, err := sdk.NewAsyncClient(sdk.DefaultConfig().WithAPIKey("your-api-key"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	languages := client.ListLanguages(ctx)
//	google := client.ListGoogleRegions(ctx)
//
//	langs, err := languages.Await(ctx)
//	regions, err := google.Await(ctx)
type AsyncClient interface {
	// CreateTask validates the payload and submits a new tracking task.
	// Validation failures complete the Future immediately.
	CreateTask(ctx context.Context, name, url string, opts ...TaskOption) *Future[Response]

	// SubmitTask submits a payload built ahead of time with NewTaskPayload.
	SubmitTask(ctx context.Context, payload *TaskPayload) *Future[Response]

	// GetTaskStatus returns the status of a task.
	GetTaskStatus(ctx context.Context, taskID string) *Future[Response]

	// GetTaskResults returns the collected results of a task.
	GetTaskResults(ctx context.Context, taskID string) *Future[Response]

	// ListLanguages returns the supported languages.
	ListLanguages(ctx context.Context) *Future[Response]

	// ListGoogleRegions returns the supported Google regions.
	ListGoogleRegions(ctx context.Context) *Future[Response]

	// ListYandexRegions returns the supported Yandex regions.
	ListYandexRegions(ctx context.Context) *Future[Response]

	// Close releases idle connections and drops the response cache.
	// Close is safe to call multiple times.
	Close() error
}

type asyncClient struct {
	core *core
}

// NewAsyncClient creates a non-blocking client with the same configuration
// rules as NewClient.
func NewAsyncClient(config *Config) (AsyncClient, error) {
	c, err := newCore(config)
	if err != nil {
		return nil, err
	}
	return &asyncClient{core: c}, nil
}

// start fails fast on a closed client so no goroutine is spawned.
func (a *asyncClient) start(ctx context.Context, fn func(context.Context) (Response, error)) *Future[Response] {
	if err := a.core.checkClosed(); err != nil {
		return completed[Response](nil, err)
	}
	return Go(ctx, fn)
}

func (a *asyncClient) CreateTask(ctx context.Context, name, url string, opts ...TaskOption) *Future[Response] {
	if err := a.core.checkClosed(); err != nil {
		return completed[Response](nil, err)
	}
	payload, err := NewTaskPayload(name, url, opts...)
	if err != nil {
		return completed[Response](nil, err)
	}
	return a.start(ctx, func(ctx context.Context) (Response, error) {
		return a.core.submit(ctx, payload)
	})
}

func (a *asyncClient) SubmitTask(ctx context.Context, payload *TaskPayload) *Future[Response] {
	if err := a.core.checkPayload(payload); err != nil {
		return completed[Response](nil, err)
	}
	return a.start(ctx, func(ctx context.Context) (Response, error) {
		return a.core.submit(ctx, payload)
	})
}

func (a *asyncClient) GetTaskStatus(ctx context.Context, taskID string) *Future[Response] {
	return a.start(ctx, func(ctx context.Context) (Response, error) {
		return a.core.taskCall(ctx, EndpointTaskStatus, taskID)
	})
}

func (a *asyncClient) GetTaskResults(ctx context.Context, taskID string) *Future[Response] {
	return a.start(ctx, func(ctx context.Context) (Response, error) {
		return a.core.taskCall(ctx, EndpointTaskResults, taskID)
	})
}

func (a *asyncClient) ListLanguages(ctx context.Context) *Future[Response] {
	return a.start(ctx, func(ctx context.Context) (Response, error) {
		return a.core.get(ctx, EndpointListLanguages, nil)
	})
}

func (a *asyncClient) ListGoogleRegions(ctx context.Context) *Future[Response] {
	return a.start(ctx, func(ctx context.Context) (Response, error) {
		return a.core.get(ctx, EndpointListGoogleRegions, nil)
	})
}

func (a *asyncClient) ListYandexRegions(ctx context.Context) *Future[Response] {
	return a.start(ctx, func(ctx context.Context) (Response, error) {
		return a.core.get(ctx, EndpointListYandexRegions, nil)
	})
}

func (a *asyncClient) Close() error {
	return a.core.close()
}

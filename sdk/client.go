package sdk

import (
	"context"
)

// Client is the blocking Rush Analytics client. Every method runs on the
// caller's goroutine and returns the decoded JSON object or a typed error.
//
// All methods are safe for concurrent use.
//
// Example:
//
//	client, err := sdk.NewClient(sdk.DefaultConfig().WithAPIKey("your-api-key"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//
//	task, err := client.CreateTask(ctx, "Test Task", "https://example.com",
//	    sdk.WithCompetitors("competitor1.com"),
//	    sdk.WithKeywords(sdk.Keyword{"keyword": "test"}),
//	)
//	if err != nil {
//	    if errors.Is(err, sdk.ErrInvalidCredential) {
//	        log.Println("Check your API key")
//	    }
//	    log.Fatal(err)
//	}
//
//	status, err := client.GetTaskStatus(ctx, task["task_id"].(string))
type Client interface {
	// CreateTask validates the payload and submits a new tracking task.
	// Validation failures return an ErrorTypeValidation error and no
	// request is sent.
	//
	// Example:
	//
	//	task, err := client.CreateTask(ctx, "Shoes", "https://shop.example.com",
	//	    sdk.WithGoogleRegions(sdk.Region{"id": 2840}),
	//	    sdk.WithDataCollectionFrequency(7),
	//	)
	CreateTask(ctx context.Context, name, url string, opts ...TaskOption) (Response, error)

	// SubmitTask submits a payload built ahead of time with NewTaskPayload.
	SubmitTask(ctx context.Context, payload *TaskPayload) (Response, error)

	// GetTaskStatus returns the status of a task.
	// Returns an error matching ErrNotFound if the task doesn't exist.
	//
	// Example:
	//
	//	status, err := client.GetTaskStatus(ctx, "12345")
	//	if sdk.IsNotFound(err) {
	//	    // Unknown task
	//	}
	GetTaskStatus(ctx context.Context, taskID string) (Response, error)

	// GetTaskResults returns the collected results of a task.
	GetTaskResults(ctx context.Context, taskID string) (Response, error)

	// ListLanguages returns the supported languages.
	// Memoized by default.
	ListLanguages(ctx context.Context) (Response, error)

	// ListGoogleRegions returns the supported Google regions.
	ListGoogleRegions(ctx context.Context) (Response, error)

	// ListYandexRegions returns the supported Yandex regions.
	ListYandexRegions(ctx context.Context) (Response, error)

	// Close releases idle connections and drops the response cache.
	// Calls made after Close fail with ErrClientClosed.
	// Close is safe to call multiple times.
	Close() error
}

// client implements the Client interface
type client struct {
	core *core
}

// NewClient creates a blocking client. The client keeps its own validated
// copy of config, so changing config afterwards has no effect on it. A
// missing API key returns an error wrapping ErrInvalidConfig.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithAPIKey(os.Getenv("RUSH_ANALYTICS_API_KEY")).
//	    WithTimeout(5 * time.Second)
//	client, err := sdk.NewClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(config *Config) (Client, error) {
	c, err := newCore(config)
	if err != nil {
		return nil, err
	}
	return &client{core: c}, nil
}

// CreateTask validates and submits a new task
func (c *client) CreateTask(ctx context.Context, name, url string, opts ...TaskOption) (Response, error) {
	return c.core.createTask(ctx, name, url, opts...)
}

// SubmitTask submits a prepared payload
func (c *client) SubmitTask(ctx context.Context, payload *TaskPayload) (Response, error) {
	if err := c.core.checkPayload(payload); err != nil {
		return nil, err
	}
	return c.core.submit(ctx, payload)
}

// GetTaskStatus fetches the status of a task
func (c *client) GetTaskStatus(ctx context.Context, taskID string) (Response, error) {
	return c.core.taskCall(ctx, EndpointTaskStatus, taskID)
}

// GetTaskResults fetches the results of a task
func (c *client) GetTaskResults(ctx context.Context, taskID string) (Response, error) {
	return c.core.taskCall(ctx, EndpointTaskResults, taskID)
}

// ListLanguages fetches the language catalogue
func (c *client) ListLanguages(ctx context.Context) (Response, error) {
	return c.core.get(ctx, EndpointListLanguages, nil)
}

// ListGoogleRegions fetches the Google region catalogue
func (c *client) ListGoogleRegions(ctx context.Context) (Response, error) {
	return c.core.get(ctx, EndpointListGoogleRegions, nil)
}

// ListYandexRegions fetches the Yandex region catalogue
func (c *client) ListYandexRegions(ctx context.Context) (Response, error) {
	return c.core.get(ctx, EndpointListYandexRegions, nil)
}

// Close closes the client and releases resources
func (c *client) Close() error {
	return c.core.close()
}

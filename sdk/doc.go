// Package sdk provides a Go client library for the Rush Analytics web
// analytics API. It builds and validates task payloads, calls the fixed REST
// endpoints, maps failed responses onto a typed error taxonomy, memoizes
// selected reads and offers a bounded exponential-backoff retry helper.
//
// # Features
//
// The SDK provides:
//   - Blocking (Client) and non-blocking (AsyncClient) variants over one core
//   - Typed errors usable with errors.Is and errors.As
//   - Payload validation before any network call
//   - Per-client LRU response cache with TTL
//   - Generic Retry and RetryAsync helpers
//   - OpenTelemetry spans, logrus logging and Observer hooks
//
// # Basic Usage
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/birbparty/rush-analytics/sdk"
//	)
//
//	func main() {
//	    client, err := sdk.NewClient(sdk.ConfigFromEnv())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer client.Close()
//
//	    ctx := context.Background()
//
//	    task, err := client.CreateTask(ctx, "Test Task", "https://example.com",
//	        sdk.WithCompetitors("competitor1.com"),
//	        sdk.WithKeywords(sdk.Keyword{"keyword": "test"}),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Printf("created %v", task["task_id"])
//	}
//
// # Configuration
//
// The SDK can be configured using a fluent builder pattern:
//
//	config := sdk.DefaultConfig().
//	    WithAPIKey("your-api-key").
//	    WithBaseURL("http://localhost:8080/api").
//	    WithTimeout(5 * time.Second).
//	    WithCachedEndpoints("list_languages", "list_google_regions")
//
// ConfigFromEnv reads the same settings from RUSH_ANALYTICS_* variables.
//
// # Error Handling
//
// Every non-2xx response becomes exactly one *Error:
//
//	_, err := client.GetTaskStatus(ctx, "12345")
//	switch {
//	case errors.Is(err, sdk.ErrInvalidCredential): // 403
//	case errors.Is(err, sdk.ErrRateLimited):       // 429
//	case errors.Is(err, sdk.ErrNotFound):          // 404
//	case errors.Is(err, sdk.ErrServerError):       // 500
//	case errors.Is(err, sdk.ErrRequestFailed):     // anything else, or no response
//	case errors.Is(err, sdk.ErrValidation):        // rejected before sending
//	}
//
// # Retries
//
// Calls are not retried automatically. Wrap them with Retry:
//
//	status, err := sdk.Retry(ctx, sdk.DefaultExponentialBackoff(),
//	    func(ctx context.Context) (sdk.Response, error) {
//	        return client.GetTaskStatus(ctx, "12345")
//	    })
//
// # Async Usage
//
//	async, _ := sdk.NewAsyncClient(config)
//	f := async.ListLanguages(ctx)
//	languages, err := f.Await(ctx)
package sdk

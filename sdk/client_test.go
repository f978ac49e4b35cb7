package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAPI mimics the Rush Analytics API and counts calls per path.
type mockAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	lastBody map[string]interface{}
}

func newMockAPI(t *testing.T) *mockAPI {
	t.Helper()
	m := &mockAPI{calls: make(map[string]int)}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		m.mu.Lock()
		m.lastBody = body
		m.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"task_id": "12345"})
	})

	mux.HandleFunc("/api/tasks/", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		switch r.URL.Path {
		case "/api/tasks/12345":
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad key"})
		case "/api/tasks/done":
			json.NewEncoder(w).Encode(map[string]string{"task_id": "done", "status": "completed"})
		case "/api/tasks/done/results":
			json.NewEncoder(w).Encode(map[string]interface{}{"task_id": "done", "results": []string{"a"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	mux.HandleFunc("/api/apiLanguages.php", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		json.NewEncoder(w).Encode(map[string]interface{}{"languages": []string{"en", "ru"}})
	})

	mux.HandleFunc("/api/apiRegionsGoogle.php", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		json.NewEncoder(w).Encode(map[string]interface{}{"regions": []map[string]interface{}{{"id": 2840}}})
	})

	mux.HandleFunc("/api/apiRegionsYandex.php", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		json.NewEncoder(w).Encode(map[string]interface{}{"regions": []map[string]interface{}{{"id": 213}}})
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockAPI) record(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[r.URL.Path]++
}

func (m *mockAPI) count(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

func (m *mockAPI) config() *Config {
	return DefaultConfig().WithAPIKey("test-key").WithBaseURL(m.server.URL + "/api")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewAsyncClient(DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClient_CreateTask(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewClient(api.config())
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.CreateTask(context.Background(), "Test Task", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "12345", resp["task_id"])

	api.mu.Lock()
	body := api.lastBody
	api.mu.Unlock()

	assert.Equal(t, map[string]interface{}{
		"apikey":                  "test-key",
		"name":                    "Test Task",
		"url":                     "https://example.com",
		"competitors":             []interface{}{},
		"dataCollectionFrequency": float64(0),
		"yandexRegions":           []interface{}{},
		"googleRegions":           []interface{}{},
		"keywords":                []interface{}{},
	}, body)
}

func TestClient_CreateTaskValidation(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewClient(api.config())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.CreateTask(context.Background(), "Test Task", "invalid_url")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, api.count("/api/tasks"), "no request should be sent")

	_, err = client.SubmitTask(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestClient_SubmitTask(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewClient(api.config())
	require.NoError(t, err)
	defer client.Close()

	payload, err := NewTaskPayload("Prepared", "https://example.com", WithKeywords(Keyword{"keyword": "shoes"}))
	require.NoError(t, err)

	resp, err := client.SubmitTask(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "12345", resp["task_id"])
	assert.Equal(t, 1, api.count("/api/tasks"))
}

func TestClient_CredentialFixedAtConstruction(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("apikey")+" | "+r.Header.Get("Authorization"))
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"status": "completed"})
	}))
	defer server.Close()

	config := DefaultConfig().WithAPIKey("original").WithBaseURL(server.URL)
	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	_, err = client.GetTaskStatus(ctx, "1")
	require.NoError(t, err)

	config.WithAPIKey("changed").WithBaseURL("http://127.0.0.1:1")
	_, err = client.GetTaskStatus(ctx, "1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"original | Bearer original", "original | Bearer original"}, seen)
}

func TestClient_CloseReleasesGoroutines(t *testing.T) {
	config := DefaultConfig().WithAPIKey("k")
	before := runtime.NumGoroutine()

	for i := 0; i < 50; i++ {
		client, err := NewClient(config)
		require.NoError(t, err)
		require.NoError(t, client.Close())

		async, err := NewAsyncClient(config)
		require.NoError(t, err)
		require.NoError(t, async.Close())
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, time.Second, 10*time.Millisecond, "clients should not leave goroutines behind")
}

func TestClient_InvalidCredentialNotRetried(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewClient(api.config())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetTaskStatus(context.Background(), "12345")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrorTypeInvalidCredential, apiErr.Type)
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Details["server_message"])
	assert.Equal(t, 1, api.count("/api/tasks/12345"))
}

func TestClient_TaskStatusAndResults(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewClient(api.config())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	status, err := client.GetTaskStatus(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, "completed", status["status"])

	results, err := client.GetTaskResults(ctx, "done")
	require.NoError(t, err)
	assert.Len(t, results["results"], 1)

	_, err = client.GetTaskStatus(ctx, "missing")
	assert.True(t, IsNotFound(err))

	_, err = client.GetTaskStatus(ctx, "")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestClient_ListLanguagesCached(t *testing.T) {
	api := newMockAPI(t)
	metrics := NewMetricsCollector()
	client, err := NewClient(api.config().WithObserver(metrics))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	first, err := client.ListLanguages(ctx)
	require.NoError(t, err)
	second, err := client.ListLanguages(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.count("/api/apiLanguages.php"))
	assert.Equal(t, int64(1), metrics.GetMetrics()["cache_hits"])

	// Region lists are not memoized by default.
	_, err = client.ListGoogleRegions(ctx)
	require.NoError(t, err)
	_, err = client.ListGoogleRegions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("/api/apiRegionsGoogle.php"))
}

func TestClient_CacheDisabled(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewClient(api.config().WithoutCache())
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < 3; i++ {
		_, err := client.ListLanguages(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, api.count("/api/apiLanguages.php"))
}

func TestClient_Close(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewClient(api.config())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.ListYandexRegions(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
	_, err = client.CreateTask(context.Background(), "Task", "https://example.com")
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.Equal(t, 0, api.count("/api/apiRegionsYandex.php"))
}

func TestClient_WithRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(DefaultConfig().WithAPIKey("k").WithBaseURL(server.URL))
	require.NoError(t, err)
	defer client.Close()

	_, err = Retry(context.Background(), fastBackoff(2), func(ctx context.Context) (Response, error) {
		return client.GetTaskStatus(ctx, "abc")
	})

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAsyncClient(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewAsyncClient(api.config())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	created := client.CreateTask(ctx, "Test Task", "https://example.com")
	languages := client.ListLanguages(ctx)
	google := client.ListGoogleRegions(ctx)
	yandex := client.ListYandexRegions(ctx)

	task, err := created.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12345", task["task_id"])

	langs, err := languages.Await(ctx)
	require.NoError(t, err)
	assert.Len(t, langs["languages"], 2)

	_, err = google.Await(ctx)
	require.NoError(t, err)
	_, err = yandex.Await(ctx)
	require.NoError(t, err)

	status, err := client.GetTaskStatus(ctx, "done").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "completed", status["status"])

	results, err := client.GetTaskResults(ctx, "done").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", results["task_id"])

	// Second languages call is served from the shared cache.
	_, err = client.ListLanguages(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("/api/apiLanguages.php"))
}

func TestAsyncClient_SubmitTask(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewAsyncClient(api.config())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	payload, err := NewTaskPayload("Prepared", "https://example.com", WithCompetitors("rival.com"))
	require.NoError(t, err)

	resp, err := client.SubmitTask(ctx, payload).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12345", resp["task_id"])
	assert.Equal(t, 1, api.count("/api/tasks"))

	invalid := client.SubmitTask(ctx, nil)
	select {
	case <-invalid.Done():
	default:
		t.Fatal("a missing payload should complete the future immediately")
	}
	_, err = invalid.Await(ctx)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 1, api.count("/api/tasks"))
}

func TestAsyncClient_Errors(t *testing.T) {
	api := newMockAPI(t)
	client, err := NewAsyncClient(api.config())
	require.NoError(t, err)

	ctx := context.Background()

	invalid := client.CreateTask(ctx, "", "https://example.com")
	select {
	case <-invalid.Done():
	default:
		t.Fatal("validation failure should complete the future immediately")
	}
	_, err = invalid.Await(ctx)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = client.GetTaskStatus(ctx, "12345").Await(ctx)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
	assert.Equal(t, 403, StatusCode(err))

	require.NoError(t, client.Close())
	_, err = client.ListLanguages(ctx).Await(ctx)
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestLiveAPI(t *testing.T) {
	if os.Getenv("RUN_LIVE_API_TESTS") != "1" {
		t.Skip("set RUN_LIVE_API_TESTS=1 to run against the real API")
	}
	config := ConfigFromEnv()
	if config.APIKey == "" {
		t.Skip("RUSH_ANALYTICS_API_KEY is not set")
	}

	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.ListLanguages(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

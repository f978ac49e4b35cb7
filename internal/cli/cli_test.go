package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/rush-analytics/internal/sandbox"
	"github.com/birbparty/rush-analytics/internal/telemetry"
	"github.com/birbparty/rush-analytics/sdk"
)

const sandboxKey = "cli-test-key"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RUSH_ANALYTICS_API_KEY",
		"RUSH_ANALYTICS_BASE_URL",
		"RUSH_ANALYTICS_TIMEOUT",
		"RUSH_ANALYTICS_CACHE_TTL",
		"RUSH_ANALYTICS_CACHE_SIZE",
		"RUSH_ANALYTICS_CACHE_DISABLED",
	} {
		t.Setenv(key, "")
	}
}

// startSandbox serves a sandbox on a loopback port and returns its API base URL.
func startSandbox(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := sandbox.NewApp(&sandbox.Config{
		APIKey:          sandboxKey,
		RequestTimeout:  5,
		ShutdownTimeout: 1,
	}, sandbox.NewMemoryStore(), telemetry.NewMetrics())

	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	return fmt.Sprintf("http://%s/api", ln.Addr().String())
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), "test", args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"interrupt", fmt.Errorf("wait: %w", context.Canceled), ExitInterrupt},
		{"usage", fmt.Errorf("%w: bad flag", ErrUsage), ExitUsage},
		{"missing key", ErrMissingAPIKey, ExitSetup},
		{"invalid config", fmt.Errorf("%w: base URL", sdk.ErrInvalidConfig), ExitSetup},
		{"validation", sdk.NewValidationError("name", "value is required"), ExitValidation},
		{"api", sdk.MapStatus(403, ""), ExitAPI},
		{"wrapped api", fmt.Errorf("languages: %w", sdk.MapStatus(500, "")), ExitAPI},
		{"other", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	clearEnv(t)
	base := startSandbox(t)
	common := []string{"--api-key", sandboxKey, "--base-url", base, "--retries", "1"}

	out, _, err := run(t, append([]string{"task", "create",
		"--name", "Shoes",
		"--url", "https://shop.example.com",
		"--google-region", "2840",
		"--yandex-region", "213",
		"--keyword", "running shoes",
		"--keyword", "trail shoes",
	}, common...)...)
	require.NoError(t, err)
	taskID, ok := decode(t, out)["task_id"].(string)
	require.True(t, ok, out)

	out, _, err = run(t, append([]string{"task", "status", taskID}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "completed", decode(t, out)["status"])

	out, _, err = run(t, append([]string{"task", "results", taskID}, common...)...)
	require.NoError(t, err)
	results, ok := decode(t, out)["results"].([]interface{})
	require.True(t, ok)
	assert.Len(t, results, 4)
}

func TestListCommands(t *testing.T) {
	clearEnv(t)
	base := startSandbox(t)
	t.Setenv("RUSH_ANALYTICS_API_KEY", sandboxKey)
	t.Setenv("RUSH_ANALYTICS_BASE_URL", base)

	t.Run("languages", func(t *testing.T) {
		out, _, err := run(t, "languages")
		require.NoError(t, err)
		assert.NotEmpty(t, decode(t, out)["languages"])
	})

	for _, engine := range []string{"google", "yandex"} {
		t.Run("regions "+engine, func(t *testing.T) {
			out, _, err := run(t, "regions", engine)
			require.NoError(t, err)
			assert.NotEmpty(t, decode(t, out)["regions"])
		})
	}

	t.Run("catalog", func(t *testing.T) {
		out, _, err := run(t, "catalog")
		require.NoError(t, err)
		v := decode(t, out)
		assert.Contains(t, v, "languages")
		assert.Contains(t, v, "google_regions")
		assert.Contains(t, v, "yandex_regions")
	})
}

func TestCommandErrors(t *testing.T) {
	clearEnv(t)
	base := startSandbox(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing api key", []string{"languages", "--base-url", base}, ExitSetup},
		{"bad base url", []string{"languages", "--api-key", sandboxKey, "--base-url", "ftp://nope"}, ExitSetup},
		{"unknown flag", []string{"languages", "--bogus"}, ExitUsage},
		{"missing task id", []string{"task", "status", "--api-key", sandboxKey}, ExitUsage},
		{"unknown engine", []string{"regions", "bing", "--api-key", sandboxKey}, ExitUsage},
		{"zero retries", []string{"languages", "--retries", "0"}, ExitUsage},
		{"invalid task", []string{"task", "create", "--url", "https://a.example.com", "--api-key", sandboxKey, "--base-url", base}, ExitValidation},
		{"wrong key", []string{"languages", "--api-key", "wrong", "--base-url", base, "--retries", "1"}, ExitAPI},
		{"unknown task", []string{"task", "status", "missing", "--api-key", sandboxKey, "--base-url", base, "--retries", "1"}, ExitAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, ExitCode(err), err.Error())
			assert.Empty(t, out)
		})
	}
}

func TestRetriesTransientErrors(t *testing.T) {
	clearEnv(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"task_id": "abc", "status": "completed"})
	}))
	defer server.Close()

	out, stderr, err := run(t, "task", "status", "abc",
		"--api-key", "secret-key-123",
		"--base-url", server.URL,
		"--retries", "3",
		"--retry-delay", "1ms",
		"--log-level", "debug",
	)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "abc", decode(t, out)["task_id"])
	assert.Contains(t, stderr, "Retrying")
	assert.NotContains(t, stderr, "secret-key-123")
}

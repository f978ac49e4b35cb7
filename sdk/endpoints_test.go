package sdk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointResolve(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		params   map[string]string
		want     string
	}{
		{"static path", EndpointListLanguages, nil, "apiLanguages.php"},
		{"task status", EndpointTaskStatus, map[string]string{"task_id": "12345"}, "tasks/12345"},
		{"task results", EndpointTaskResults, map[string]string{"task_id": "12345"}, "tasks/12345/results"},
		{"slash is escaped", EndpointTaskStatus, map[string]string{"task_id": "a/b"}, "tasks/a%2Fb"},
		{"space is escaped", EndpointTaskStatus, map[string]string{"task_id": "a b"}, "tasks/a%20b"},
		{"query chars are escaped", EndpointTaskStatus, map[string]string{"task_id": "x?y=1&z"}, "tasks/x%3Fy%3D1%26z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.endpoint.Resolve(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpointResolve_MissingPlaceholder(t *testing.T) {
	for _, params := range []map[string]string{nil, {"task_id": ""}, {"task_id": "   "}} {
		_, err := EndpointTaskStatus.Resolve(params)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "task_id", apiErr.Field)
	}
}

func TestEndpointsTable(t *testing.T) {
	names := map[string]bool{}
	for _, e := range Endpoints() {
		names[e.Name] = true
	}

	assert.Len(t, names, 6)
	assert.Equal(t, "POST", EndpointCreateTask.Method)
	assert.Equal(t, "GET", EndpointListYandexRegions.Method)
	assert.Equal(t, "apiRegionsGoogle.php", EndpointListGoogleRegions.Path)
}

func TestRequestImmutability(t *testing.T) {
	query := map[string][]string{"apikey": {"secret"}, "page": {"1"}}
	req := NewRequest(EndpointListLanguages, "apiLanguages.php", query, nil)

	query["page"][0] = "2"
	assert.Equal(t, "1", req.Query().Get("page"))

	q := req.Query()
	q.Set("page", "3")
	assert.Equal(t, "1", req.Query().Get("page"))

	assert.Empty(t, req.params().Get("apikey"))
	assert.Equal(t, "secret", req.Query().Get("apikey"))
}

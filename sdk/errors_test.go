package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType ErrorType
		wantMsg  string
		sentinel error
	}{
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			wantType: ErrorTypeInvalidCredential,
			wantMsg:  "Invalid API key provided. Please check your API key.",
			sentinel: ErrInvalidCredential,
		},
		{
			name:     "too many requests",
			status:   http.StatusTooManyRequests,
			wantType: ErrorTypeRateLimit,
			wantMsg:  "Rate limit exceeded. Please wait before making additional requests.",
			sentinel: ErrRateLimited,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			wantType: ErrorTypeNotFound,
			wantMsg:  "Resource not found.",
			sentinel: ErrNotFound,
		},
		{
			name:     "internal server error",
			status:   http.StatusInternalServerError,
			wantType: ErrorTypeServer,
			wantMsg:  "Internal server error. Please try again later.",
			sentinel: ErrServerError,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			wantType: ErrorTypeRequest,
			wantMsg:  "HTTP error occurred: 400",
			sentinel: ErrRequestFailed,
		},
		{
			name:     "bad gateway",
			status:   http.StatusBadGateway,
			wantType: ErrorTypeRequest,
			wantMsg:  "HTTP error occurred: 502",
			sentinel: ErrRequestFailed,
		},
		{
			name:     "teapot",
			status:   http.StatusTeapot,
			wantType: ErrorTypeRequest,
			wantMsg:  "HTTP error occurred: 418",
			sentinel: ErrRequestFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapStatus(tt.status, "")

			if err.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", err.Type, tt.wantType)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %v, want %v", err.StatusCode, tt.status)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v) = false, want true", tt.sentinel)
			}
			if !IsRetryable(err) {
				t.Error("transport errors should be retryable")
			}
		})
	}
}

func TestMapStatus_ExactlyOneVariant(t *testing.T) {
	sentinels := []error{ErrInvalidCredential, ErrRateLimited, ErrNotFound, ErrServerError, ErrRequestFailed, ErrValidation}

	for status := 300; status < 600; status++ {
		err := MapStatus(status, "")
		matches := 0
		for _, s := range sentinels {
			if errors.Is(err, s) {
				matches++
			}
		}
		require.Equal(t, 1, matches, "status %d matched %d variants", status, matches)
	}
}

func TestMapStatus_MessageOverride(t *testing.T) {
	err := MapStatus(http.StatusNotFound, "Task 42 does not exist")
	assert.Equal(t, "Task 42 does not exist", err.Message)
	assert.Equal(t, "Task 42 does not exist (HTTP 404)", err.Error())
}

func TestError_Rendering(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := MapStatus(http.StatusForbidden, "")
		assert.Equal(t, "Invalid API key provided. Please check your API key. (HTTP 403)", err.Error())
	})

	t.Run("validation with field", func(t *testing.T) {
		err := NewValidationError("url", "must be an absolute http or https URL")
		assert.Equal(t, "url: must be an absolute http or https URL", err.Error())
		assert.Equal(t, 0, err.StatusCode)
	})

	t.Run("wrapped cause without status", func(t *testing.T) {
		cause := fmt.Errorf("dial tcp: connection refused")
		err := NewError(ErrorTypeRequest, 0, "request failed", cause)
		assert.Equal(t, "request failed: dial tcp: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
	})
}

func TestError_UnwrapContext(t *testing.T) {
	err := NewError(ErrorTypeRequest, 0, "request failed", fmt.Errorf("Get: %w", context.DeadlineExceeded))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"foreign error", errors.New("boom"), false},
		{"validation", NewValidationError("name", "value is required"), false},
		{"rate limit", MapStatus(429, ""), true},
		{"invalid credential", MapStatus(403, ""), true},
		{"wrapped typed error", fmt.Errorf("outer: %w", MapStatus(500, "")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotFound(MapStatus(404, "")))
	assert.False(t, IsNotFound(MapStatus(500, "")))
	assert.Equal(t, 429, StatusCode(fmt.Errorf("wrap: %w", MapStatus(429, ""))))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))

	err := MapStatus(500, "").WithDetail("server_message", "db down")
	assert.Equal(t, "db down", err.Details["server_message"])
	assert.Equal(t, "server", err.Type.String())
}

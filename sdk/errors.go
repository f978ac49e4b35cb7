package sdk

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors returned by the SDK. These can be used with errors.Is()
// to check for specific error conditions.
//
// Example:
//
//	_, err := client.GetTaskStatus(ctx, "12345")
//	if errors.Is(err, sdk.ErrInvalidCredential) {
//	    // Rotate the API key
//	} else if errors.Is(err, sdk.ErrRateLimited) {
//	    // Back off before the next call
//	}
var (
	// ErrInvalidConfig is returned when the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClientClosed is returned when a closed client is used
	ErrClientClosed = errors.New("client is closed")

	// ErrInvalidCredential is returned for HTTP 403 responses
	ErrInvalidCredential = errors.New("invalid API key")

	// ErrRateLimited is returned for HTTP 429 responses
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned for HTTP 404 responses
	ErrNotFound = errors.New("resource not found")

	// ErrServerError is returned for HTTP 500 responses
	ErrServerError = errors.New("server error")

	// ErrRequestFailed is returned for any other failed request
	ErrRequestFailed = errors.New("request failed")

	// ErrValidation is returned when input is rejected before any network call
	ErrValidation = errors.New("validation failed")
)

// ErrorType identifies the variant of a typed error.
//
// Example:
//
//	var apiErr *sdk.Error
//	if errors.As(err, &apiErr) {
//	    switch apiErr.Type {
//	    case sdk.ErrorTypeRateLimit:
//	        // Back off and retry later
//	    case sdk.ErrorTypeNotFound:
//	        // The task does not exist
//	    }
//	}
type ErrorType int

const (
	// ErrorTypeRequest is the generic variant for unmapped failures
	ErrorTypeRequest ErrorType = iota
	// ErrorTypeInvalidCredential represents HTTP 403
	ErrorTypeInvalidCredential
	// ErrorTypeRateLimit represents HTTP 429
	ErrorTypeRateLimit
	// ErrorTypeNotFound represents HTTP 404
	ErrorTypeNotFound
	// ErrorTypeServer represents HTTP 500
	ErrorTypeServer
	// ErrorTypeValidation represents rejected input; never produced by the transport
	ErrorTypeValidation
)

// String returns the string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidCredential:
		return "invalid_credential"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServer:
		return "server"
	case ErrorTypeValidation:
		return "validation"
	default:
		return "request"
	}
}

// Default messages per error type.
const (
	msgInvalidCredential = "Invalid API key provided. Please check your API key."
	msgRateLimit         = "Rate limit exceeded. Please wait before making additional requests."
	msgNotFound          = "Resource not found."
	msgServer            = "Internal server error. Please try again later."
)

// Error is the typed failure returned by every client operation.
// StatusCode is the originating HTTP status, or 0 when the request never
// produced a response (network failure, validation).
//
// Example:
//
//	var apiErr *sdk.Error
//	if errors.As(err, &apiErr) {
//	    fmt.Printf("Type: %s, Status: %d\n", apiErr.Type, apiErr.StatusCode)
//	    if apiErr.Context != nil {
//	        fmt.Printf("Failed URL: %s\n", apiErr.Context.URL)
//	    }
//	}
type Error struct {
	// Type categorizes the error for handling decisions
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, 0 if unknown
	StatusCode int `json:"status_code,omitempty"`
	// Message is a human-readable error description
	Message string `json:"message"`
	// Field names the offending input for validation errors
	Field string `json:"field,omitempty"`
	// Details contains additional error metadata
	Details map[string]interface{} `json:"details,omitempty"`
	// RequestID is the request identifier sent with the failed call
	RequestID string `json:"request_id,omitempty"`
	// Timestamp is when the error occurred
	Timestamp time.Time `json:"timestamp"`
	// Context provides additional context about the failed operation
	Context *ErrorContext `json:"context,omitempty"`
	// wrapped is the underlying error, if any
	wrapped error
}

// ErrorContext describes the request that failed.
type ErrorContext struct {
	// URL is the request URL without the query string
	URL string `json:"url,omitempty"`
	// Method is the HTTP method used
	Method string `json:"method,omitempty"`
	// Endpoint is the logical endpoint name (e.g. "task_status")
	Endpoint string `json:"endpoint,omitempty"`
	// Duration is how long the request took before failing
	Duration time.Duration `json:"duration,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", msg, e.wrapped)
	}
	return msg
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is implements errors.Is
func (e *Error) Is(target error) bool {
	switch e.Type {
	case ErrorTypeInvalidCredential:
		return target == ErrInvalidCredential
	case ErrorTypeRateLimit:
		return target == ErrRateLimited
	case ErrorTypeNotFound:
		return target == ErrNotFound
	case ErrorTypeServer:
		return target == ErrServerError
	case ErrorTypeValidation:
		return target == ErrValidation
	default:
		return target == ErrRequestFailed
	}
}

// WithContext adds error context
func (e *Error) WithContext(ctx *ErrorContext) *Error {
	e.Context = ctx
	return e
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewError creates a new typed error
func NewError(errType ErrorType, statusCode int, message string, wrapped error) *Error {
	return &Error{
		Type:       errType,
		StatusCode: statusCode,
		Message:    message,
		Timestamp:  time.Now(),
		wrapped:    wrapped,
	}
}

// NewValidationError creates a validation error for the named input field.
func NewValidationError(field, message string) *Error {
	err := NewError(ErrorTypeValidation, 0, message, nil)
	err.Field = field
	return err
}

// MapStatus translates an HTTP status code into exactly one typed error.
// The mapping is total: codes without a dedicated variant become
// ErrorTypeRequest with the numeric status in the message. A non-empty
// message replaces the variant's default.
func MapStatus(status int, message string) *Error {
	var (
		errType ErrorType
		def     string
	)
	switch status {
	case http.StatusForbidden:
		errType, def = ErrorTypeInvalidCredential, msgInvalidCredential
	case http.StatusTooManyRequests:
		errType, def = ErrorTypeRateLimit, msgRateLimit
	case http.StatusNotFound:
		errType, def = ErrorTypeNotFound, msgNotFound
	case http.StatusInternalServerError:
		errType, def = ErrorTypeServer, msgServer
	default:
		errType, def = ErrorTypeRequest, fmt.Sprintf("HTTP error occurred: %d", status)
	}
	if message == "" {
		message = def
	}
	return NewError(errType, status, message, nil)
}

// IsRetryable reports whether err is a typed transport error that the
// retry wrapper may re-attempt. Validation errors and foreign errors are
// not retryable.
func IsRetryable(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Type != ErrorTypeValidation
}

// IsNotFound checks if the error represents a "not found" condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusCode extracts the HTTP status from a typed error, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

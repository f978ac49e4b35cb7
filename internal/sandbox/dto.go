package sandbox

import (
	"time"
)

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	APIKey                  string                   `json:"apikey"`
	Name                    string                   `json:"name" validate:"required"`
	URL                     string                   `json:"url" validate:"required,url"`
	Competitors             []string                 `json:"competitors" validate:"dive,required"`
	DataCollectionFrequency int                      `json:"dataCollectionFrequency" validate:"gte=0"`
	YandexRegions           []map[string]interface{} `json:"yandexRegions"`
	GoogleRegions           []map[string]interface{} `json:"googleRegions"`
	Keywords                []map[string]string      `json:"keywords" validate:"dive,len=1"`
}

// CreateTaskResponse is returned when a task is accepted
type CreateTaskResponse struct {
	TaskID string `json:"task_id"`
}

// TaskStatusResponse describes a task's progress
type TaskStatusResponse struct {
	TaskID    string    `json:"task_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Position is the rank of the tracked site for one keyword in one region
type Position struct {
	Keyword  string `json:"keyword"`
	Engine   string `json:"engine"`
	RegionID string `json:"region_id"`
	Position int    `json:"position"`
}

// TaskResultsResponse holds the collected positions
type TaskResultsResponse struct {
	TaskID  string     `json:"task_id"`
	Status  string     `json:"status"`
	Results []Position `json:"results"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Tasks   int    `json:"tasks"`
}

// Error codes
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeRateLimited    = "RATE_LIMITED"
)

// NewErrorResponse creates a new error response
func NewErrorResponse(err string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: err,
		Code:  code,
	}
}

// NewErrorResponseWithDetails creates a new error response with details
func NewErrorResponseWithDetails(err string, code string, details string) *ErrorResponse {
	return &ErrorResponse{
		Error:   err,
		Code:    code,
		Details: details,
	}
}

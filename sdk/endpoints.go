package sdk

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Endpoint describes one fixed REST endpoint of the Rush Analytics API.
// Path is relative to the base URL and may contain named placeholders
// such as {task_id}.
type Endpoint struct {
	Name   string
	Method string
	Path   string
}

// The Rush Analytics endpoint table.
var (
	EndpointCreateTask        = Endpoint{Name: "create_task", Method: http.MethodPost, Path: "tasks"}
	EndpointTaskStatus        = Endpoint{Name: "task_status", Method: http.MethodGet, Path: "tasks/{task_id}"}
	EndpointTaskResults       = Endpoint{Name: "task_results", Method: http.MethodGet, Path: "tasks/{task_id}/results"}
	EndpointListLanguages     = Endpoint{Name: "list_languages", Method: http.MethodGet, Path: "apiLanguages.php"}
	EndpointListGoogleRegions = Endpoint{Name: "list_google_regions", Method: http.MethodGet, Path: "apiRegionsGoogle.php"}
	EndpointListYandexRegions = Endpoint{Name: "list_yandex_regions", Method: http.MethodGet, Path: "apiRegionsYandex.php"}
)

// Endpoints lists every known endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointCreateTask,
		EndpointTaskStatus,
		EndpointTaskResults,
		EndpointListLanguages,
		EndpointListGoogleRegions,
		EndpointListYandexRegions,
	}
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Resolve substitutes the path placeholders with params. Each value is
// escaped so that characters like '/' or spaces cannot change the path
// structure. A placeholder without a non-empty value is a validation error.
//
// Example:
//
//	path, err := sdk.EndpointTaskStatus.Resolve(map[string]string{"task_id": "12345"})
//	// path == "tasks/12345"
func (e Endpoint) Resolve(params map[string]string) (string, error) {
	var missing string
	path := placeholderPattern.ReplaceAllStringFunc(e.Path, func(m string) string {
		name := m[1 : len(m)-1]
		value := strings.TrimSpace(params[name])
		if value == "" {
			if missing == "" {
				missing = name
			}
			return m
		}
		// QueryEscape encodes '/', '?', '&' and friends; '+' is only a space in queries.
		return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
	})
	if missing != "" {
		return "", NewValidationError(missing, "value is required")
	}
	return path, nil
}

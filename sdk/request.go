package sdk

import (
	"net/url"
)

// Response is a decoded JSON object returned by the API.
type Response map[string]interface{}

// Request is a single, fully resolved API call. It is built once per call
// and never modified afterwards; accessors hand out copies.
type Request struct {
	endpoint Endpoint
	path     string
	query    url.Values
	body     interface{}
}

// NewRequest builds a request for endpoint with an already resolved path.
// The query values are copied.
func NewRequest(endpoint Endpoint, path string, query url.Values, body interface{}) Request {
	return Request{
		endpoint: endpoint,
		path:     path,
		query:    cloneValues(query),
		body:     body,
	}
}

// Endpoint returns the endpoint descriptor the request was built from.
func (r Request) Endpoint() Endpoint { return r.endpoint }

// Method returns the HTTP method.
func (r Request) Method() string { return r.endpoint.Method }

// Path returns the resolved path relative to the base URL.
func (r Request) Path() string { return r.path }

// Query returns a copy of the query parameters.
func (r Request) Query() url.Values { return cloneValues(r.query) }

// Body returns the JSON body, or nil for bodiless requests.
func (r Request) Body() interface{} { return r.body }

// params returns the request parameters used for cache keys, without the
// credential.
func (r Request) params() url.Values {
	q := cloneValues(r.query)
	q.Del("apikey")
	return q
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

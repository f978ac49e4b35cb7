package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/birbparty/rush-analytics/sdk"

// httpTransport executes resolved Requests against the Rush Analytics API.
// It owns the HTTP client, sets the standard headers, decodes JSON objects
// and turns every non-2xx status into exactly one typed *Error.
type httpTransport struct {
	// client is the underlying HTTP client
	client *http.Client
	// baseURL is the API root without a trailing slash
	baseURL string
	// apiKey is sent as a Bearer token
	apiKey string
	// headers are extra headers from the config
	headers map[string]string
	// observer for monitoring operations
	observer Observer
	logger   *logrus.Logger
	tracer   trace.Tracer
}

// newHTTPTransport creates a transport from a validated config.
func newHTTPTransport(config *Config) *httpTransport {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = v
	}
	return &httpTransport{
		client:   client,
		baseURL:  config.BaseURL,
		apiKey:   config.APIKey,
		headers:  headers,
		observer: config.Observer,
		logger:   config.Logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// do performs one HTTP exchange for req. The request is only read.
func (t *httpTransport) do(ctx context.Context, req Request) (Response, error) {
	endpoint := req.Endpoint().Name
	method := req.Method()

	ctx, span := t.tracer.Start(ctx, "rush-analytics "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("rush.endpoint", endpoint),
			attribute.String("rush.path", req.Path()),
		),
	)
	defer span.End()

	t.observer.OnRequestStart(method, endpoint)
	start := time.Now()

	resp, status, err := t.perform(ctx, req)
	duration := time.Since(start)

	t.observer.OnRequestEnd(method, endpoint, status, duration, err)
	fields := logrus.Fields{
		"method":      method,
		"endpoint":    endpoint,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.WithFields(fields).WithError(err).Debug("Request failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	t.logger.WithFields(fields).Debug("Request completed")
	if method == http.MethodPost {
		t.logger.WithFields(fields).Infof("POST request to %s succeeded", req.Path())
	}
	return resp, nil
}

// perform sends the request and returns the decoded body and HTTP status.
func (t *httpTransport) perform(ctx context.Context, req Request) (Response, int, error) {
	fullURL := t.baseURL + "/" + req.Path()
	errCtx := &ErrorContext{
		URL:      fullURL,
		Method:   req.Method(),
		Endpoint: req.Endpoint().Name,
	}
	start := time.Now()

	var bodyReader io.Reader
	if body := req.Body(); body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, NewError(ErrorTypeRequest, 0, "failed to encode request body", err).WithContext(errCtx)
		}
		bodyReader = bytes.NewReader(data)
	}

	target := fullURL
	if q := req.Query(); len(q) > 0 {
		target += "?" + q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), target, bodyReader)
	if err != nil {
		return nil, 0, NewError(ErrorTypeRequest, 0, "failed to create request", err).WithContext(errCtx)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "rush-analytics-go/"+Version)
	httpReq.Header.Set("X-Request-ID", requestID)
	for key, value := range t.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		errCtx.Duration = time.Since(start)
		apiErr := NewError(ErrorTypeRequest, 0, "request failed", err).WithContext(errCtx)
		apiErr.RequestID = requestID
		return nil, 0, apiErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	errCtx.Duration = time.Since(start)
	if err != nil {
		apiErr := NewError(ErrorTypeRequest, 0, "failed to read response body", err).WithContext(errCtx)
		apiErr.RequestID = requestID
		return nil, resp.StatusCode, apiErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		decoded, err := decodeObject(respBody)
		if err != nil {
			apiErr := NewError(ErrorTypeRequest, resp.StatusCode, "response is not a JSON object", err).WithContext(errCtx)
			apiErr.RequestID = requestID
			return nil, resp.StatusCode, apiErr
		}
		return decoded, resp.StatusCode, nil
	}

	apiErr := MapStatus(resp.StatusCode, "").WithContext(errCtx)
	apiErr.RequestID = requestID
	if msg := serverMessage(respBody); msg != "" {
		apiErr.WithDetail("server_message", msg)
	}
	return nil, resp.StatusCode, apiErr
}

// close releases idle connections held by the HTTP client.
func (t *httpTransport) close() {
	t.client.CloseIdleConnections()
}

// decodeObject decodes a JSON object. An empty body or a JSON null decode to
// an empty Response; anything that is not an object is an error.
func decodeObject(body []byte) (Response, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Response{}, nil
	}
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out == nil {
		out = Response{}
	}
	return out, nil
}

// serverMessage extracts the "message" or "error" field of an error body.
func serverMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

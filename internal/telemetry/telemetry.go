package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Init initializes the global logger and tracer
func Init(cfg *Config) error {
	InitLogger(cfg)

	if err := InitTracing(cfg); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	L().WithFields(map[string]interface{}{
		"service":     cfg.ServiceName,
		"version":     cfg.ServiceVersion,
		"environment": cfg.Environment,
		"tracing":     cfg.EnableTracing,
	}).Debug("Telemetry initialized")

	return nil
}

// Shutdown flushes pending spans
func Shutdown(ctx context.Context) error {
	if err := CloseTracing(ctx); err != nil {
		return fmt.Errorf("failed to close tracing: %w", err)
	}
	return nil
}

// FiberMetricsMiddleware returns a Fiber middleware for recording HTTP metrics
func FiberMetricsMiddleware(m *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		ctx, span := StartSpan(c.UserContext(), fmt.Sprintf("%s %s", c.Method(), c.Path()))
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		route := c.Route().Path
		m.RecordHTTPRequest(c.Method(), route, fmt.Sprintf("%d", status), duration)

		span.SetAttributes(
			semconv.HTTPMethodKey.String(c.Method()),
			semconv.HTTPTargetKey.String(c.Path()),
			semconv.HTTPStatusCodeKey.Int(status),
		)

		if err != nil {
			RecordError(ctx, err)
			SetErrorStatus(ctx, err.Error())
		} else if status >= 400 {
			SetErrorStatus(ctx, fmt.Sprintf("HTTP %d", status))
		} else {
			SetOKStatus(ctx)
		}

		return err
	}
}

// FiberLoggingMiddleware returns a Fiber middleware for structured logging.
// Query strings are not logged since they may carry the API key.
func FiberLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		entry := WithContext(c.UserContext()).WithFields(map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
			"request_id": c.Get("X-Request-ID"),
		})

		if err != nil {
			entry.WithError(err).Error("Request failed")
		} else if c.Response().StatusCode() >= 400 {
			entry.Warn("Request completed with error status")
		} else {
			entry.Info("Request completed")
		}

		return err
	}
}

package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/birbparty/rush-analytics/internal/telemetry"
)

// FaultHeader forces the sandbox to answer with the given status code.
// It lets clients exercise their error mapping and retry paths.
const FaultHeader = "X-Sandbox-Status"

// SetupMiddleware configures the middleware shared by every route
func SetupMiddleware(app *fiber.App, metrics *telemetry.Metrics) {
	app.Use(requestid.New())

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(telemetry.FiberMetricsMiddleware(metrics))
	app.Use(telemetry.FiberLoggingMiddleware())

	app.Use(errorHandler())
	app.Use(timingMiddleware())
}

// errorHandler turns returned errors into JSON error responses
func errorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "Internal Server Error"
		errCode := ErrCodeInternalError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		switch code {
		case fiber.StatusNotFound:
			errCode = ErrCodeNotFound
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			errCode = ErrCodeInvalidRequest
		case fiber.StatusForbidden:
			errCode = ErrCodeForbidden
		case fiber.StatusTooManyRequests:
			errCode = ErrCodeRateLimited
		}

		telemetry.WithContext(c.UserContext()).WithFields(map[string]interface{}{
			"path":   c.Path(),
			"method": c.Method(),
		}).WithError(err).Error("Handler error")

		return c.Status(code).JSON(NewErrorResponse(message, errCode))
	}
}

// timingMiddleware adds request timing headers
func timingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		c.Set("X-Response-Time", fmt.Sprintf("%d ms", time.Since(start).Milliseconds()))
		return err
	}
}

// ValidateAPIKey rejects requests that do not carry apiKey. The key is
// accepted from the apikey query parameter, the apikey field of a JSON
// body, an X-API-Key header or a Bearer token. Failures are answered with
// 403 like the production API.
func ValidateAPIKey(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" || requestAPIKey(c) == apiKey {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(
			NewErrorResponse("Invalid or missing API key", ErrCodeForbidden),
		)
	}
}

func requestAPIKey(c *fiber.Ctx) string {
	if key := c.Query("apikey"); key != "" {
		return key
	}
	if key := c.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		var body struct {
			APIKey string `json:"apikey"`
		}
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			return body.APIKey
		}
	}
	return ""
}

// FaultInjection answers with the status named in the X-Sandbox-Status
// header instead of running the handler.
func FaultInjection() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(FaultHeader)
		if raw == "" {
			return c.Next()
		}

		status, err := strconv.Atoi(raw)
		if err != nil || status < 400 || status > 599 {
			return c.Status(fiber.StatusBadRequest).JSON(
				NewErrorResponseWithDetails("Invalid fault status", ErrCodeInvalidRequest, raw),
			)
		}

		return c.Status(status).JSON(
			NewErrorResponse(fmt.Sprintf("Injected fault %d", status), faultCode(status)),
		)
	}
}

func faultCode(status int) string {
	switch status {
	case fiber.StatusForbidden:
		return ErrCodeForbidden
	case fiber.StatusNotFound:
		return ErrCodeNotFound
	case fiber.StatusTooManyRequests:
		return ErrCodeRateLimited
	case fiber.StatusBadRequest:
		return ErrCodeInvalidRequest
	default:
		return ErrCodeInternalError
	}
}

// RateLimiter creates a simple in-memory per-IP rate limiter
func RateLimiter(requestsPerMinute int) fiber.Handler {
	type client struct {
		count     int
		lastReset time.Time
	}

	var mu sync.Mutex
	clients := make(map[string]*client)

	return func(c *fiber.Ctx) error {
		ip := c.IP()
		now := time.Now()

		mu.Lock()
		cl, exists := clients[ip]
		if !exists {
			cl = &client{lastReset: now}
			clients[ip] = cl
		}

		// Reset counter if a minute has passed
		if now.Sub(cl.lastReset) > time.Minute {
			cl.count = 0
			cl.lastReset = now
		}

		limited := cl.count >= requestsPerMinute
		if !limited {
			cl.count++
		}
		remaining := requestsPerMinute - cl.count
		reset := cl.lastReset.Add(time.Minute)
		mu.Unlock()

		c.Set("X-RateLimit-Limit", strconv.Itoa(requestsPerMinute))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if limited {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(time.Until(reset).Seconds())+1))
			return c.Status(fiber.StatusTooManyRequests).JSON(
				NewErrorResponse("Rate limit exceeded", ErrCodeRateLimited),
			)
		}

		return c.Next()
	}
}

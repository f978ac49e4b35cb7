package sandbox

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/birbparty/rush-analytics/internal/telemetry"
	"github.com/birbparty/rush-analytics/sdk"
)

// SetupRoutes configures all sandbox routes
func SetupRoutes(app *fiber.App, handler *Handler, metrics *telemetry.Metrics, cfg *Config) {
	api := app.Group("/api")

	if cfg.RateLimit > 0 {
		api.Use(RateLimiter(cfg.RateLimit))
	}
	api.Use(ValidateAPIKey(cfg.APIKey))
	api.Use(FaultInjection())

	api.Post("/tasks", handler.CreateTask)
	api.Get("/tasks/:id", handler.GetTask)
	api.Get("/tasks/:id/results", handler.GetTaskResults)

	api.Get("/apiLanguages.php", handler.ListLanguages)
	api.Get("/apiRegionsGoogle.php", handler.ListGoogleRegions)
	api.Get("/apiRegionsYandex.php", handler.ListYandexRegions)

	// Health and metrics endpoints (no auth required)
	app.Get("/health", handler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "rush-sandbox",
			"version": sdk.Version,
			"status":  "running",
			"endpoints": fiber.Map{
				"create_task":         "POST /api/tasks",
				"task_status":         "GET /api/tasks/:id",
				"task_results":        "GET /api/tasks/:id/results",
				"list_languages":      "GET /api/apiLanguages.php",
				"list_google_regions": "GET /api/apiRegionsGoogle.php",
				"list_yandex_regions": "GET /api/apiRegionsYandex.php",
				"health":              "GET /health",
				"metrics":             "GET /metrics",
			},
		})
	})

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(
			NewErrorResponse("Endpoint not found", ErrCodeNotFound),
		)
	})
}

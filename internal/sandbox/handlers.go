package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/rush-analytics/internal/telemetry"
	"github.com/birbparty/rush-analytics/sdk"
)

// Handler holds all dependencies for sandbox handlers
type Handler struct {
	store    TaskStore
	metrics  *telemetry.Metrics
	validate *validator.Validate
	delay    time.Duration
	now      func() time.Time
	started  time.Time
}

// NewHandler creates a new handler instance. Tasks report "processing"
// for delay after creation.
func NewHandler(store TaskStore, metrics *telemetry.Metrics, delay time.Duration) *Handler {
	return &Handler{
		store:    store,
		metrics:  metrics,
		validate: validator.New(),
		delay:    delay,
		now:      time.Now,
		started:  time.Now(),
	}
}

// CreateTask handles POST /api/tasks
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponseWithDetails("Invalid request body", ErrCodeInvalidRequest, err.Error()),
		)
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponseWithDetails("Validation failed", ErrCodeInvalidRequest, describeValidation(err)),
		)
	}

	task := NewTask(req, h.now())
	if err := h.store.Save(c.UserContext(), task); err != nil {
		return err
	}
	h.metrics.RecordTaskCreated()

	telemetry.WithContext(c.UserContext()).WithFields(map[string]interface{}{
		"task_id":  task.ID,
		"name":     task.Request.Name,
		"keywords": len(task.Request.Keywords),
	}).Info("Task created")

	return c.Status(fiber.StatusCreated).JSON(CreateTaskResponse{TaskID: task.ID})
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *fiber.Ctx) error {
	task, err := h.lookup(c)
	if err != nil {
		return err
	}

	return c.JSON(TaskStatusResponse{
		TaskID:    task.ID,
		Name:      task.Request.Name,
		Status:    task.Status(h.now(), h.delay),
		CreatedAt: task.CreatedAt,
	})
}

// GetTaskResults handles GET /api/tasks/:id/results
func (h *Handler) GetTaskResults(c *fiber.Ctx) error {
	task, err := h.lookup(c)
	if err != nil {
		return err
	}

	return c.JSON(TaskResultsResponse{
		TaskID:  task.ID,
		Status:  task.Status(h.now(), h.delay),
		Results: task.Results(h.now(), h.delay),
	})
}

func (h *Handler) lookup(c *fiber.Ctx) (*Task, error) {
	id := c.Params("id")
	if id == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Task ID is required")
	}

	task, err := h.store.Get(c.UserContext(), id)
	if errors.Is(err, ErrTaskNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Task not found")
	}
	return task, err
}

// ListLanguages handles GET /api/apiLanguages.php
func (h *Handler) ListLanguages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"languages": languages})
}

// ListGoogleRegions handles GET /api/apiRegionsGoogle.php
func (h *Handler) ListGoogleRegions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"regions": googleRegions})
}

// ListYandexRegions handles GET /api/apiRegionsYandex.php
func (h *Handler) ListYandexRegions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"regions": yandexRegions})
}

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	resp := HealthResponse{
		Status:  "healthy",
		Service: "rush-sandbox",
		Version: sdk.Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	}

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "unhealthy: " + err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	count, err := h.store.Count(ctx)
	if err != nil {
		resp.Status = "unhealthy: " + err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	resp.Tasks = count

	return c.JSON(resp)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

var languages = []fiber.Map{
	{"id": 1, "code": "en", "name": "English"},
	{"id": 2, "code": "ru", "name": "Russian"},
	{"id": 3, "code": "de", "name": "German"},
	{"id": 4, "code": "fr", "name": "French"},
	{"id": 5, "code": "es", "name": "Spanish"},
	{"id": 6, "code": "uk", "name": "Ukrainian"},
}

var googleRegions = []fiber.Map{
	{"id": 2840, "name": "United States", "lang": "en"},
	{"id": 2826, "name": "United Kingdom", "lang": "en"},
	{"id": 2276, "name": "Germany", "lang": "de"},
	{"id": 2250, "name": "France", "lang": "fr"},
	{"id": 2643, "name": "Russia", "lang": "ru"},
}

var yandexRegions = []fiber.Map{
	{"id": 213, "name": "Moscow"},
	{"id": 2, "name": "Saint Petersburg"},
	{"id": 54, "name": "Yekaterinburg"},
	{"id": 65, "name": "Novosibirsk"},
	{"id": 143, "name": "Kyiv"},
}

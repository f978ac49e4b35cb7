package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/rush-analytics/internal/cache"
	"github.com/birbparty/rush-analytics/internal/telemetry"
)

// NewApp builds the sandbox Fiber application with middleware and routes.
func NewApp(cfg *Config, store TaskStore, metrics *telemetry.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Rush Analytics Sandbox",
		ReadTimeout:           time.Duration(cfg.RequestTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.RequestTimeout) * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})

	SetupMiddleware(app, metrics)
	SetupRoutes(app, NewHandler(store, metrics, cfg.ProcessingDelay), metrics, cfg)

	return app
}

// Serve listens on addr until ctx is done, then shuts the app down within
// shutdownTimeout and runs onShutdown with the same deadline. It returns
// only after onShutdown has finished.
func Serve(ctx context.Context, app *fiber.App, addr string, shutdownTimeout time.Duration, onShutdown func(context.Context) error) error {
	log := telemetry.L()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("Server forced to shutdown")
		}
		if onShutdown != nil {
			if err := onShutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("Shutdown hook failed")
			}
		}
	}()

	if err := app.Listen(addr); err != nil {
		return err
	}
	<-done
	return nil
}

// OpenStore creates the task store selected by cfg.StoreBackend. The redis
// backend reads its connection settings from the REDIS_* environment.
func OpenStore(ctx context.Context, cfg *Config) (TaskStore, error) {
	switch cfg.StoreBackend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		redisCfg, err := cache.NewConfigFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load Redis configuration: %w", err)
		}
		rc, err := cache.NewRedisCache(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(cache.NewPrefixedCache(rc, redisCfg.KeyPrefix), cfg.TaskTTL), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/birbparty/rush-analytics/internal/sandbox"
	"github.com/birbparty/rush-analytics/internal/telemetry"
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	telCfg := telemetry.NewConfigFromEnv("rush-sandbox")
	if err := telemetry.Init(telCfg); err != nil {
		telemetry.L().WithError(err).Fatal("Failed to initialize telemetry")
	}
	log := telemetry.L()

	cfg, err := sandbox.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sandbox.OpenStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open task store")
	}
	defer store.Close()

	metrics := telemetry.NewMetrics()
	app := sandbox.NewApp(cfg, store, metrics)

	log.WithFields(map[string]interface{}{
		"addr":             cfg.Addr(),
		"rate_limit":       cfg.RateLimit,
		"processing_delay": cfg.ProcessingDelay.String(),
		"store":            cfg.StoreBackend,
	}).Info("Rush Analytics sandbox listening")

	shutdownTimeout := time.Duration(cfg.ShutdownTimeout) * time.Second
	if err := sandbox.Serve(ctx, app, cfg.Addr(), shutdownTimeout, telemetry.Shutdown); err != nil {
		log.WithError(err).Error("Failed to start server")
		store.Close()
		os.Exit(1)
	}
	log.Info("Server stopped")
}

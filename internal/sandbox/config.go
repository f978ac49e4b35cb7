package sandbox

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the sandbox server configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// APIKey is the only credential the sandbox accepts.
	APIKey string

	// RequestTimeout and ShutdownTimeout are in seconds.
	RequestTimeout  int
	ShutdownTimeout int

	// RateLimit is the number of requests per minute per client IP.
	// Zero disables rate limiting.
	RateLimit int

	// ProcessingDelay is how long a new task reports "processing"
	// before it is "completed".
	ProcessingDelay time.Duration

	// StoreBackend is "memory" or "redis".
	StoreBackend string

	// TaskTTL bounds how long the redis backend keeps a task.
	TaskTTL time.Duration
}

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultAPIKey is accepted when SANDBOX_API_KEY is not set.
const DefaultAPIKey = "sandbox-key"

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	requestTimeout, err := strconv.Atoi(getEnvOrDefault("REQUEST_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := strconv.Atoi(getEnvOrDefault("SHUTDOWN_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}

	processingDelay, err := time.ParseDuration(getEnvOrDefault("PROCESSING_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROCESSING_DELAY: %w", err)
	}

	taskTTL, err := time.ParseDuration(getEnvOrDefault("TASK_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_TTL: %w", err)
	}

	backend := getEnvOrDefault("STORE_BACKEND", BackendMemory)
	if backend != BackendMemory && backend != BackendRedis {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want %s or %s", backend, BackendMemory, BackendRedis)
	}

	return &Config{
		Host:            getEnvOrDefault("HOST", "0.0.0.0"),
		Port:            port,
		APIKey:          getEnvOrDefault("SANDBOX_API_KEY", DefaultAPIKey),
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: shutdownTimeout,
		RateLimit:       rateLimit,
		ProcessingDelay: processingDelay,
		StoreBackend:    backend,
		TaskTTL:         taskTTL,
	}, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

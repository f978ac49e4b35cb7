package telemetry

import (
	"os"
	"strconv"
)

// Config holds the configuration for telemetry
type Config struct {
	// OTLP trace export
	OTLPEndpoint   string
	ServiceName    string
	Environment    string
	ServiceVersion string

	// Common settings
	SamplingRate float64
	LogLevel     string
	LogFormat    string // "json" or "text"

	// Feature flags
	EnableTracing bool
}

// NewConfigFromEnv creates a new config from environment variables
func NewConfigFromEnv(serviceName string) *Config {
	return &Config{
		ServiceName:    getEnv("OTEL_SERVICE_NAME", serviceName),
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServiceVersion: getEnv("SERVICE_VERSION", "unknown"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		SamplingRate:   getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
		EnableTracing:  getEnvBool("ENABLE_TRACING", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

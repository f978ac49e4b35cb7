package cache

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes the Redis instance behind the sandbox task store
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Timeout bounds dialing and every command; zero keeps the go-redis defaults
	Timeout time.Duration

	// KeyPrefix namespaces every key written through NewPrefixedCache
	KeyPrefix string

	// Default TTL for entries stored with a zero TTL
	DefaultTTL time.Duration
}

// NewConfigFromEnv reads REDIS_URL when set, otherwise REDIS_HOST, REDIS_PORT,
// REDIS_PASSWORD and REDIS_DB.
func NewConfigFromEnv() (*Config, error) {
	timeout, err := parseDuration(getEnvOrDefault("REDIS_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_TIMEOUT: %w", err)
	}

	defaultTTL, err := parseDuration(getEnvOrDefault("REDIS_DEFAULT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DEFAULT_TTL: %w", err)
	}

	cfg := &Config{
		Timeout:    timeout,
		KeyPrefix:  getEnvOrDefault("REDIS_KEY_PREFIX", "rush-sandbox"),
		DefaultTTL: defaultTTL,
	}

	if raw := os.Getenv("REDIS_URL"); raw != "" {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		host, port, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		cfg.Host = host
		if cfg.Port, err = strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL port: %w", err)
		}
		cfg.Password = opts.Password
		cfg.DB = opts.DB
		return cfg, nil
	}

	if cfg.Port, err = strconv.Atoi(getEnvOrDefault("REDIS_PORT", "6379")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	if cfg.DB, err = strconv.Atoi(getEnvOrDefault("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Host = getEnvOrDefault("REDIS_HOST", "localhost")
	cfg.Password = os.Getenv("REDIS_PASSWORD")
	return cfg, nil
}

// Address returns the Redis server address
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Address(),
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.Timeout,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration accepts Go durations ("90s") or plain seconds ("90").
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration format: %s", s)
}

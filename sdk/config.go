package sdk

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Version is reported in the User-Agent header.
const Version = "1.0.0"

const (
	// DefaultBaseURL is the production Rush Analytics API root.
	DefaultBaseURL = "https://rush-analytics.com/api"
	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 10 * time.Second
	// DefaultCacheTTL is how long a memoized response stays valid.
	DefaultCacheTTL = time.Hour
	// DefaultCacheSize is the maximum number of memoized responses.
	DefaultCacheSize = 100
)

// Config holds the configuration for the Rush Analytics client.
// Only APIKey is required; everything else has a sensible default.
//
// Configuration can be built using the fluent builder pattern:
//
//	config := sdk.DefaultConfig().
//	    WithAPIKey(os.Getenv("RUSH_ANALYTICS_API_KEY")).
//	    WithTimeout(5 * time.Second).
//	    WithCacheTTL(10 * time.Minute)
//
//	client, err := sdk.NewClient(config)
type Config struct {
	// APIKey is the credential sent with every call. It is never logged.
	APIKey string

	// BaseURL is the API root. Endpoint paths are appended after a slash.
	// Default: "https://rush-analytics.com/api"
	BaseURL string

	// Timeout is the HTTP request timeout.
	// This includes connection time, any redirects, and reading the response body.
	// Default: 10s
	Timeout time.Duration

	// Headers are custom headers to include in all requests.
	Headers map[string]string

	// Cache configures response memoization.
	Cache CacheConfig

	// Observer for monitoring operations.
	// If nil, NoopObserver is used.
	Observer Observer

	// Logger receives request logs. If nil, logs are discarded.
	Logger *logrus.Logger

	// HTTPClient replaces the default client. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// CacheConfig controls the per-client response cache.
//
// Example:
//
//	config.Cache = sdk.CacheConfig{
//	    Enabled:    true,
//	    TTL:        30 * time.Minute,
//	    MaxEntries: 50,
//	    Endpoints:  []string{"list_languages", "list_google_regions"},
//	}
type CacheConfig struct {
	// Enabled turns memoization on.
	// Default: true
	Enabled bool

	// TTL is how long an entry is served before it is refetched.
	// Default: 1h
	TTL time.Duration

	// MaxEntries is the LRU capacity.
	// Default: 100
	MaxEntries int

	// Endpoints lists the endpoint names whose responses are memoized.
	// Default: ["list_languages"]
	Endpoints []string
}

// DefaultConfig returns a Config with sensible defaults suitable for most use cases.
// The default configuration includes:
//   - Base URL: https://rush-analytics.com/api
//   - Timeout: 10 seconds
//   - Cache: list_languages memoized for 1 hour, 100 entries
//
// The API key still has to be provided.
//
// Example:
//
//	config := sdk.DefaultConfig().WithAPIKey("your-api-key")
//	client, err := sdk.NewClient(config)
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		Headers: make(map[string]string),
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheSize,
			Endpoints:  []string{EndpointListLanguages.Name},
		},
		Observer: &NoopObserver{},
	}
}

// ConfigFromEnv returns DefaultConfig overridden by the RUSH_ANALYTICS_*
// environment variables:
//   - RUSH_ANALYTICS_API_KEY
//   - RUSH_ANALYTICS_BASE_URL
//   - RUSH_ANALYTICS_TIMEOUT (Go duration, e.g. "5s")
//   - RUSH_ANALYTICS_CACHE_TTL (Go duration)
//   - RUSH_ANALYTICS_CACHE_SIZE
//   - RUSH_ANALYTICS_CACHE_DISABLED (bool)
func ConfigFromEnv() *Config {
	c := DefaultConfig()
	c.APIKey = getEnv("RUSH_ANALYTICS_API_KEY", "")
	c.BaseURL = getEnv("RUSH_ANALYTICS_BASE_URL", c.BaseURL)
	c.Timeout = getEnvDuration("RUSH_ANALYTICS_TIMEOUT", c.Timeout)
	c.Cache.TTL = getEnvDuration("RUSH_ANALYTICS_CACHE_TTL", c.Cache.TTL)
	c.Cache.MaxEntries = getEnvInt("RUSH_ANALYTICS_CACHE_SIZE", c.Cache.MaxEntries)
	c.Cache.Enabled = !getEnvBool("RUSH_ANALYTICS_CACHE_DISABLED", false)
	return c
}

// WithAPIKey sets the credential.
func (c *Config) WithAPIKey(key string) *Config {
	c.APIKey = key
	return c
}

// WithBaseURL sets the API root. Use it to point the client at a sandbox.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithBaseURL("http://localhost:8080/api")
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout for all operations.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithHeader adds a custom header to be sent with all requests.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithHeader("X-Tenant-ID", "tenant-123")
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithCacheTTL sets how long memoized responses are served.
func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.Cache.TTL = ttl
	return c
}

// WithCacheSize sets the LRU capacity.
func (c *Config) WithCacheSize(size int) *Config {
	c.Cache.MaxEntries = size
	return c
}

// WithCachedEndpoints replaces the list of memoized endpoint names.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithCachedEndpoints("list_languages", "list_google_regions", "list_yandex_regions")
func (c *Config) WithCachedEndpoints(names ...string) *Config {
	c.Cache.Endpoints = append([]string(nil), names...)
	return c
}

// WithoutCache disables memoization.
func (c *Config) WithoutCache() *Config {
	c.Cache.Enabled = false
	return c
}

// WithObserver sets a custom observer for monitoring SDK operations.
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithLogger sets the logger used for request logs.
func (c *Config) WithLogger(logger *logrus.Logger) *Config {
	c.Logger = logger
	return c
}

// WithHTTPClient replaces the HTTP client used by the transport.
func (c *Config) WithHTTPClient(client *http.Client) *Config {
	c.HTTPClient = client
	return c
}

// Clone returns a copy of c that shares no maps or slices with it.
// Observer, Logger and HTTPClient are shared.
func (c *Config) Clone() *Config {
	out := *c
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	if c.Cache.Endpoints != nil {
		out.Cache.Endpoints = append([]string(nil), c.Cache.Endpoints...)
	}
	return &out
}

// Validate validates the configuration and sets defaults for missing values.
// This is called automatically by NewClient and NewAsyncClient.
//
// Returns an error wrapping ErrInvalidConfig if the API key is missing or the
// base URL is not an absolute http(s) URL.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base URL must be an absolute http or https URL", ErrInvalidConfig)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheSize
	}
	if c.Cache.Endpoints == nil {
		c.Cache.Endpoints = []string{EndpointListLanguages.Name}
	}
	if c.Observer == nil {
		c.Observer = &NoopObserver{}
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
		c.Logger.SetOutput(io.Discard)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

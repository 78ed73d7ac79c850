// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Search   SearchConfig
	CORS     CORSConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000). PORT is honoured for
	// hosting platforms that inject it.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for requests. It must exceed
	// the dataset fetch timeout so the local fallback still has time to run.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// DatasetConfig holds where the therapy table is read from.
type DatasetConfig struct {
	// RemoteURL is fetched first when set (e.g. a published spreadsheet CSV).
	RemoteURL string `env:"DATA_REMOTE_URL"`

	// LocalPaths are comma-separated fallback files, probed in order.
	LocalPaths []string `env:"DATA_LOCAL_PATHS" default:"data/Table_Data.csv,../data/Table_Data.csv"`

	// FetchTimeout bounds the remote fetch (default: 10s)
	FetchTimeout time.Duration `env:"DATA_FETCH_TIMEOUT" default:"10s"`

	// MaxBytes caps the size of any source (default: 16MiB)
	MaxBytes int64 `env:"DATA_MAX_BYTES" default:"16777216"`
}

// SearchConfig bounds concurrent searches. Each search re-reads the table.
type SearchConfig struct {
	MaxConcurrent int           `env:"SEARCH_MAX_CONCURRENT" default:"8"`
	MaxWait       time.Duration `env:"SEARCH_MAX_WAIT" default:"5s"`
}

// CORSConfig holds cross-origin settings for the browser frontend.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE" default:"300"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

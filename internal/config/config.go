// Package config provides configuration management for the alert analysis service.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	API      APIConfig      `envPrefix:"API_"`
	Geostore GeostoreConfig `envPrefix:"GEOSTORE_"`
	Glad     GladConfig     `envPrefix:"GLAD_"`
	Terrai   TerraiConfig   `envPrefix:"TERRAI_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// APIConfig configures the SQL query API that fronts the alert indexes.
type APIConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://production-api.globalforestwatch.org"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// RetryMax is the number of retries after the first attempt.
	RetryMax     int           `env:"RETRY_MAX" envDefault:"2"`
	RetryWaitMin time.Duration `env:"RETRY_WAIT_MIN" envDefault:"200ms"`
	RetryWaitMax time.Duration `env:"RETRY_WAIT_MAX" envDefault:"2s"`
}

// GeostoreConfig configures the area resolver.
type GeostoreConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://production-api.globalforestwatch.org"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// GladConfig identifies the GLAD alert dataset.
type GladConfig struct {
	DatasetID string `env:"DATASET_ID"` // required
	IndexID   string `env:"INDEX_ID"`   // required
}

// TerraiConfig identifies the Terra-i alert dataset.
type TerraiConfig struct {
	DatasetID string `env:"DATASET_ID"` // required
	IndexID   string `env:"INDEX_ID"`   // required

	// Encoding is "absolute_day" (days since Epoch) or "julian_day".
	Encoding string `env:"ENCODING" envDefault:"absolute_day"`

	// Epoch is day zero of the absolute day column.
	Epoch string `env:"EPOCH" envDefault:"2004-01-01"`
}

// CacheConfig controls caching of indexed date bounds.
type CacheConfig struct {
	BoundsTTL  time.Duration `env:"BOUNDS_TTL" envDefault:"1h"`
	BoundsSize int           `env:"BOUNDS_SIZE" envDefault:"16"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables, after loading a .env
// file from the working directory when one exists.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if err := validateURL("API base URL", c.API.BaseURL); err != nil {
		return err
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive, got %s", c.API.Timeout)
	}

	if c.API.RetryMax < 0 {
		return fmt.Errorf("API retry max must not be negative, got %d", c.API.RetryMax)
	}

	if c.API.RetryWaitMin > c.API.RetryWaitMax {
		return fmt.Errorf("API retry wait min (%s) must be <= max (%s)", c.API.RetryWaitMin, c.API.RetryWaitMax)
	}

	if err := validateURL("geostore base URL", c.Geostore.BaseURL); err != nil {
		return err
	}

	if c.Geostore.Timeout <= 0 {
		return fmt.Errorf("geostore timeout must be positive, got %s", c.Geostore.Timeout)
	}

	if c.Glad.DatasetID == "" || c.Glad.IndexID == "" {
		return fmt.Errorf("GLAD dataset and index IDs are required")
	}

	if c.Terrai.DatasetID == "" || c.Terrai.IndexID == "" {
		return fmt.Errorf("Terra-i dataset and index IDs are required")
	}

	if _, err := alerts.ParseEncoding(c.Terrai.Encoding); err != nil {
		return fmt.Errorf("Terra-i encoding: %w", err)
	}

	if _, err := time.Parse(time.DateOnly, c.Terrai.Epoch); err != nil {
		return fmt.Errorf("Terra-i epoch must be a YYYY-MM-DD date, got %q", c.Terrai.Epoch)
	}

	if c.Cache.BoundsSize < 1 {
		return fmt.Errorf("bounds cache size must be at least 1, got %d", c.Cache.BoundsSize)
	}

	if c.Cache.BoundsTTL < 0 {
		return fmt.Errorf("bounds cache TTL must not be negative, got %s", c.Cache.BoundsTTL)
	}

	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("metrics path must start with '/', got %q", c.Metrics.Path)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

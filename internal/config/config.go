package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Station     StationConfig     `toml:"station"`     // Station directory source
	Weather     WeatherConfig     `toml:"wx"`          // Report fetching and caching settings
	Geolocation GeolocationConfig `toml:"geolocation"` // IP geolocation lookup settings
	Server      ServerConfig      `toml:"server"`      // HTTP API settings
	Logging     LoggingConfig     `toml:"logging"`     // Application logging settings
}

// StationConfig selects where the station directory is read from
type StationConfig struct {
	AirportsDBPath string `toml:"airports_db_path"` // Path to an airport-codes CSV; empty uses the built-in directory
}

// WeatherConfig contains report fetching and caching configuration
type WeatherConfig struct {
	APIBaseURL            string `toml:"api_base_url"`            // Base URL for the report API (e.g., https://aviationweather.gov/api/data)
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"` // HTTP request timeout in seconds
	MaxRetries            int    `toml:"max_retries"`             // Maximum number of retry attempts for failed requests
	RetryBackoffMs        int    `toml:"retry_backoff_ms"`        // Base delay before the first retry, doubled on each attempt
	CacheExpiryMinutes    int    `toml:"cache_expiry_minutes"`    // How long a fetched report is served from cache
}

// GeolocationConfig contains IP geolocation settings
type GeolocationConfig struct {
	APIURL                string `toml:"api_url"`                 // ip-api compatible JSON endpoint
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"` // HTTP request timeout in seconds
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Host string `toml:"host"` // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	Port int    `toml:"port"` // HTTP port for the server
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Weather: WeatherConfig{
			APIBaseURL:            "https://aviationweather.gov/api/data",
			RequestTimeoutSeconds: 10,
			MaxRetries:            2,
			RetryBackoffMs:        500,
			CacheExpiryMinutes:    5,
		},
		Geolocation: GeolocationConfig{
			APIURL:                "http://ip-api.com/json/",
			RequestTimeoutSeconds: 10,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads the configuration from the specified file path. Values missing
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	config := Default()

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in
// order of preference. When none of them exists the defaults are returned.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var errs []error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		config, err := Load(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load config from %s: %w", path, err))
			continue
		}
		return config, nil
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return Default(), nil
}

// MaxRetriesLimit is the largest accepted wx.max_retries.
const MaxRetriesLimit = 10

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.ValidateWeather(); err != nil {
		return err
	}

	if c.Geolocation.APIURL == "" {
		return fmt.Errorf("geolocation api_url cannot be empty")
	}
	if c.Geolocation.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("geolocation request_timeout_seconds must be greater than 0: %d", c.Geolocation.RequestTimeoutSeconds)
	}

	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q (must be json or console)", c.Logging.Format)
	}

	return nil
}

// ValidateWeather validates the weather configuration
func (c *Config) ValidateWeather() error {
	// Validate API base URL
	if c.Weather.APIBaseURL == "" {
		return fmt.Errorf("weather api_base_url cannot be empty")
	}
	if _, err := url.ParseRequestURI(c.Weather.APIBaseURL); err != nil {
		return fmt.Errorf("weather api_base_url is invalid: %w", err)
	}

	// Validate request timeout
	if c.Weather.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("weather request_timeout_seconds must be greater than 0: %d", c.Weather.RequestTimeoutSeconds)
	}

	// Validate max retries
	if c.Weather.MaxRetries < 0 || c.Weather.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("weather max_retries must be between 0 and %d: %d", MaxRetriesLimit, c.Weather.MaxRetries)
	}

	if c.Weather.RetryBackoffMs < 0 {
		return fmt.Errorf("weather retry_backoff_ms must be 0 or greater: %d", c.Weather.RetryBackoffMs)
	}

	// Validate cache expiry
	if c.Weather.CacheExpiryMinutes <= 0 {
		return fmt.Errorf("weather cache_expiry_minutes must be greater than 0: %d", c.Weather.CacheExpiryMinutes)
	}

	return nil
}

// RequestTimeout returns the report request timeout as a duration.
func (w WeatherConfig) RequestTimeout() time.Duration {
	return time.Duration(w.RequestTimeoutSeconds) * time.Second
}

// RetryBackoff returns the base retry delay as a duration.
func (w WeatherConfig) RetryBackoff() time.Duration {
	return time.Duration(w.RetryBackoffMs) * time.Millisecond
}

// CacheExpiry returns the cache TTL as a duration.
func (w WeatherConfig) CacheExpiry() time.Duration {
	return time.Duration(w.CacheExpiryMinutes) * time.Minute
}

// RequestTimeout returns the geolocation request timeout as a duration.
func (g GeolocationConfig) RequestTimeout() time.Duration {
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// Address returns the host:port the HTTP API listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

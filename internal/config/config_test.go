package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Station.AirportsDBPath)
	assert.Equal(t, "https://aviationweather.gov/api/data", cfg.Weather.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Weather.RequestTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Weather.RetryBackoff())
	assert.Equal(t, 5*time.Minute, cfg.Weather.CacheExpiry())
	assert.Equal(t, 10*time.Second, cfg.Geolocation.RequestTimeout())
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_overridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.toml", `
[station]
airports_db_path = "/data/airports.csv"

[wx]
max_retries = 5
cache_expiry_minutes = 1

[server]
port = 9090

[logging]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/airports.csv", cfg.Station.AirportsDBPath)
	assert.Equal(t, 5, cfg.Weather.MaxRetries)
	assert.Equal(t, time.Minute, cfg.Weather.CacheExpiry())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)

	// untouched keys keep their defaults
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 10, cfg.Weather.RequestTimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "config file not found")

	bad := writeConfig(t, dir, "bad.toml", "[server\nport = ")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to decode config file")
}

func TestLoadWithFallback(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// nothing on disk
	cfg, err := LoadWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// root config.toml
	writeConfig(t, dir, "config.toml", "[server]\nport = 7000\n")
	cfg, err = LoadWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)

	// configs/ takes precedence over the root file
	writeConfig(t, dir, "configs/config.toml", "[server]\nport = 7001\n")
	cfg, err = LoadWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)

	// the preferred path wins over both
	preferred := writeConfig(t, dir, "custom.toml", "[server]\nport = 7002\n")
	cfg, err = LoadWithFallback(preferred)
	require.NoError(t, err)
	assert.Equal(t, 7002, cfg.Server.Port)

	// a broken preferred file falls through to the next location
	broken := writeConfig(t, dir, "broken.toml", "port = = 1")
	cfg, err = LoadWithFallback(broken)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoadWithFallback_allBroken(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeConfig(t, dir, "config.toml", "port = = 1")
	_, err := LoadWithFallback("")
	assert.ErrorContains(t, err, "failed to load config from config.toml")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "empty api url", mutate: func(c *Config) { c.Weather.APIBaseURL = "" }, errMsg: "api_base_url cannot be empty"},
		{name: "relative api url", mutate: func(c *Config) { c.Weather.APIBaseURL = "not a url" }, errMsg: "api_base_url is invalid"},
		{name: "zero timeout", mutate: func(c *Config) { c.Weather.RequestTimeoutSeconds = 0 }, errMsg: "request_timeout_seconds"},
		{name: "negative retries", mutate: func(c *Config) { c.Weather.MaxRetries = -1 }, errMsg: "max_retries"},
		{name: "too many retries", mutate: func(c *Config) { c.Weather.MaxRetries = MaxRetriesLimit + 1 }, errMsg: "max_retries must be between 0 and 10"},
		{name: "negative backoff", mutate: func(c *Config) { c.Weather.RetryBackoffMs = -1 }, errMsg: "retry_backoff_ms"},
		{name: "zero cache expiry", mutate: func(c *Config) { c.Weather.CacheExpiryMinutes = 0 }, errMsg: "cache_expiry_minutes"},
		{name: "empty geolocation url", mutate: func(c *Config) { c.Geolocation.APIURL = "" }, errMsg: "geolocation api_url"},
		{name: "zero geolocation timeout", mutate: func(c *Config) { c.Geolocation.RequestTimeoutSeconds = 0 }, errMsg: "geolocation request_timeout_seconds"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, errMsg: "invalid server port"},
		{name: "unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, errMsg: "invalid logging format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	cfg := Default()
	cfg.Weather.MaxRetries = MaxRetriesLimit
	assert.NoError(t, cfg.Validate())
}

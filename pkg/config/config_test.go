package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10, cfg.Rooms.DefaultCapacity)
	assert.Equal(t, 6, cfg.Rooms.IDLength)
	assert.Equal(t, 12*time.Hour, cfg.Channel.TokenTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Monitoring.PrometheusEnabled)
	assert.False(t, cfg.RateLimiting.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  address: ":9090"
rooms:
  default_capacity: 25
  id_length: 8
channel:
  token_secret: "file-secret"
  token_ttl: 1h
logging:
  level: debug
  format: console
rate_limiting:
  enabled: true
  requests_per_second: 10
  burst: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 25, cfg.Rooms.DefaultCapacity)
	assert.Equal(t, 8, cfg.Rooms.IDLength)
	assert.Equal(t, "file-secret", cfg.Channel.TokenSecret)
	assert.Equal(t, time.Hour, cfg.Channel.TokenTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.RateLimiting.Enabled)

	// Untouched sections keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 100, cfg.Rooms.MaxIDAttempts)
}

func TestLoad_MissingFileStillValidated(t *testing.T) {
	t.Setenv("WATCHPARTY_DEFAULT_CAPACITY", "1")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "env overrides on the defaults path must pass through Validate")
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o644))

	t.Setenv("WATCHPARTY_SERVER_ADDRESS", ":7070")
	t.Setenv("WATCHPARTY_LOG_LEVEL", "warn")
	t.Setenv("WATCHPARTY_TOKEN_SECRET", "env-secret")
	t.Setenv("WATCHPARTY_DEFAULT_CAPACITY", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "env-secret", cfg.Channel.TokenSecret)
	assert.Equal(t, 42, cfg.Rooms.DefaultCapacity)
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rooms:\n  default_capacity: 1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"empty address", func(c *Config) { c.Server.Address = "" }, false},
		{"capacity too low", func(c *Config) { c.Rooms.DefaultCapacity = 1 }, false},
		{"capacity too high", func(c *Config) { c.Rooms.DefaultCapacity = 101 }, false},
		{"id too short", func(c *Config) { c.Rooms.IDLength = 3 }, false},
		{"id too long", func(c *Config) { c.Rooms.IDLength = 13 }, false},
		{"no attempts", func(c *Config) { c.Rooms.MaxIDAttempts = 0 }, false},
		{"empty secret", func(c *Config) { c.Channel.TokenSecret = "" }, false},
		{"zero ttl", func(c *Config) { c.Channel.TokenTTL = 0 }, false},
		{"rate limit enabled without rate", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.RequestsPerSecond = 0
		}, false},
		{"rate limit disabled ignores rate", func(c *Config) {
			c.RateLimiting.Enabled = false
			c.RateLimiting.RequestsPerSecond = 0
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

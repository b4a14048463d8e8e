package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlebird/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("LB_TEST_API_KEY", "secret-key")

	path := writeConfig(t, `
database:
  host: localhost
  user: lb
api:
  key: ${LB_TEST_API_KEY}
auth:
  jwt_secret: shh
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.API.Key)
	assert.Equal(t, KeyInHeader, cfg.API.KeyLocation)
	assert.Equal(t, "https://v3.openstates.org", cfg.API.BaseURL)
	assert.Equal(t, 20, cfg.API.PageSize)
	assert.Equal(t, 5, cfg.API.MaxPages)
	assert.Equal(t, 3, cfg.API.Retry.MaxAttempts)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, LockNone, cfg.Sync.Lock)
	assert.Equal(t, time.Duration(0), cfg.Sync.Interval)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
auth:
  jwt_secret: shh
`)

	_, err := Load(path)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "api.key", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{
			Database: DatabaseConfig{Host: "db"},
			API:      APIConfig{Key: "k"},
			Auth:     AuthConfig{JWTSecret: "s"},
		}
		c.setDefaults()
		return c
	}

	tests := []struct {
		name  string
		edit  func(c *Config)
		field string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing database host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret"},
		{"bad key location", func(c *Config) { c.API.KeyLocation = "cookie" }, "api.key_location"},
		{"redis lock without url", func(c *Config) { c.Sync.Lock = LockRedis }, "redis.url"},
		{"unknown lock", func(c *Config) { c.Sync.Lock = "etcd" }, "sync.lock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.edit(&c)
			err := c.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPER_ADMIN_EMAIL", " Admin@Example.com ")
	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "admin@example.com", cfg.SuperAdminEmail)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 5, cfg.RateLimits.Request)
	assert.Equal(t, 10, cfg.RateLimits.Verify)
	assert.Equal(t, 10, cfg.RateLimits.Test)
	assert.Equal(t, time.Minute, cfg.RateLimits.Window)
	assert.False(t, cfg.AuthTestMode)
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SUPER_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("NEXT_PUBLIC_SITE_URL", "https://example.com/")
	t.Setenv("AUTH_TEST_MODE", "true")
	t.Setenv("AUTH_TEST_SECRET", "s3cret")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("APP_ENV", "production")
	cfg := Load()

	assert.Equal(t, "https://example.com", cfg.PublicBaseURL)
	assert.True(t, cfg.AuthTestMode)
	assert.Equal(t, 30*time.Second, cfg.RateLimits.Window)
	assert.True(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *Config {
		return &Config{
			SuperAdminEmail: "admin@example.com",
			StoreBackend:    BackendMemory,
			RateLimits:      RateLimits{Window: time.Minute},
		}
	}

	c := base()
	c.SuperAdminEmail = ""
	assert.Error(t, c.Validate())

	c = base()
	c.StoreBackend = "postgres"
	assert.Error(t, c.Validate())

	c = base()
	c.AuthTestMode = true
	assert.Error(t, c.Validate())

	c = base()
	c.RateLimits.Window = 0
	assert.Error(t, c.Validate())

	assert.NoError(t, base().Validate())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "http://0.0.0.0:8081", cfg.API.BaseURL)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.StaleTime)
	assert.Equal(t, "officeadmin_session", cfg.Session.CookieName)
	assert.False(t, cfg.Audit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("CACHE_STALE_TIME", "30s")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ENABLE_AUDIT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg := &Config{
		Env:     EnvProduction,
		API:     APIConfig{BaseURL: "http://api"},
		Cache:   CacheConfig{Backend: CacheBackendMemory},
		Session: SessionConfig{Secret: defaultSessionSecret},
	}
	assert.Error(t, cfg.Validate())

	cfg.Session.Secret = "something-long-and-private"
	assert.NoError(t, cfg.Validate())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Second))
}

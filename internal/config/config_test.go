package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "REDIS_URL", "CACHE_TTL", "LOGIN_RATE_BURST"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "app.db", cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, 5, cfg.LoginRateBurst)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("LOGIN_RATE_PER_SECOND", "0.5")
	t.Setenv("LOGIN_RATE_BURST", "10")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0.5, cfg.LoginRatePerSecond)
	assert.Equal(t, 10, cfg.LoginRateBurst)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("JWT_ACCESS_TTL", "-1h")
	t.Setenv("LOGIN_RATE_BURST", "many")
	t.Setenv("LOGIN_RATE_PER_SECOND", "0")

	cfg := Load()

	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, 5, cfg.LoginRateBurst)
	assert.Equal(t, 1.0, cfg.LoginRatePerSecond)
}

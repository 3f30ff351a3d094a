package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, uint64(3), cfg.Auth.SessionRetryAttempts)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, "helpdesk:notifications", cfg.Realtime.Channel)
}

func TestNew_ReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AUTH_MAX_LOGIN_ATTEMPTS", "7")
	t.Setenv("OUTBOX_RETRY_BACKOFF", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REALTIME_REDIS_RELAY", "false")

	cfg := New()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 30*time.Second, cfg.Dispatcher.RetryBackoff)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Realtime.EnableRedisRelay)
}

func TestGetEnvFallbacksOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_DURATION", "soon")

	assert.Equal(t, 42, getEnvInt("SOME_INT", 42))
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
}

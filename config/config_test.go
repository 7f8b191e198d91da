package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "EMOTION_TOP_K", "SENTIMENT_BACKEND", "VALKEY_INIT_ADDRESS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 3, cfg.EmotionTopK)
	assert.Equal(t, SentimentBackendHugot, cfg.SentimentBackend)
	assert.Empty(t, cfg.ValkeyAddress)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("SENTIMENT_BACKEND", "VADER")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VALKEY_TLS", "true")

	cfg := Load()

	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, SentimentBackendVADER, cfg.SentimentBackend)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.ValkeyTLS)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "-3")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("EMOTION_TOP_K", "many")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()

	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 3, cfg.EmotionTopK)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestGetEnvDurationAcceptsGoSyntax(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvDuration("RATE_LIMIT_WINDOW", time.Minute))
}

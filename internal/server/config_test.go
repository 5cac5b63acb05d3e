package server

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.False(t, cfg.RateLimit.Enabled(), "throttling is opt-in")
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example, http://localhost:3000")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("SEND_BUFFER_SIZE", "64")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")
	t.Setenv("SHUTDOWN_TIMEOUT", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := NewConfigFromEnv().sanitize()

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"https://chat.example", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 64, cfg.SendBufferSize)
	assert.Equal(t, RateLimitConfig{Burst: 10, RefillInterval: 2 * time.Second}, cfg.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestNewConfigFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "-1")
	t.Setenv("SEND_BUFFER_SIZE", "lots")
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("LOG_LEVEL", "chatty")

	cfg := NewConfigFromEnv()
	defaults := NewConfig()

	assert.Equal(t, defaults.MaxMessageSize, cfg.MaxMessageSize)
	assert.Equal(t, defaults.SendBufferSize, cfg.SendBufferSize)
	assert.False(t, cfg.RateLimit.Enabled())
	assert.Equal(t, defaults.ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, defaults.LogLevel, cfg.LogLevel)
}

func TestSanitizeConfig(t *testing.T) {
	tests := []struct {
		name  string
		in    Config
		check func(t *testing.T, got Config)
	}{
		{
			name: "empty config gets defaults",
			in:   Config{},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, ":8080", got.Port)
				assert.Equal(t, int64(4096), got.MaxMessageSize)
				assert.Equal(t, 256, got.SendBufferSize)
				assert.Equal(t, 30*time.Second, got.ShutdownTimeout)
			},
		},
		{
			name: "tiny send buffer is raised",
			in:   Config{SendBufferSize: 2},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, 16, got.SendBufferSize)
			},
		},
		{
			name: "host:port is kept",
			in:   Config{Port: "127.0.0.1:7000"},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, "127.0.0.1:7000", got.Port)
			},
		},
		{
			name: "rate limit without interval defaults to one second",
			in:   Config{RateLimit: RateLimitConfig{Burst: 3}},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, time.Second, got.RateLimit.RefillInterval)
			},
		},
		{
			name: "negative burst disables throttling",
			in:   Config{RateLimit: RateLimitConfig{Burst: -4}},
			check: func(t *testing.T, got Config) {
				assert.False(t, got.RateLimit.Enabled())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.in.sanitize())
		})
	}
}

func TestSanitizeCopiesOrigins(t *testing.T) {
	origins := []string{"http://a.example"}
	cfg := Config{AllowedOrigins: origins}.sanitize()
	origins[0] = "http://changed.example"
	assert.Equal(t, "http://a.example", cfg.AllowedOrigins[0])
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "CORS_ORIGINS",
	"DATABASE_DRIVER", "DATABASE_PATH", "MONGO_URL", "MONGO_DATABASE",
	"JWT_SECRET", "TOKEN_TTL", "GUEST_TOKEN_TTL",
	"BROADCAST_SCOPE", "LOCK_PAST_EVENTS", "GUEST_SWEEP_SCHEDULE",
	"UPLOAD_BACKEND", "IMGBB_API_KEY", "MAX_UPLOAD_BYTES",
	"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_PUBLIC_URL",
}

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, ScopeGlobal, cfg.BroadcastScope)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 6*time.Hour, cfg.GuestTokenTTL)
	assert.False(t, cfg.LockPastEvents)
	assert.Equal(t, "@every 1h", cfg.GuestSweepSpec)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DATABASE_DRIVER", "mongo")
	t.Setenv("BROADCAST_SCOPE", "room")
	t.Setenv("LOCK_PAST_EVENTS", "true")
	t.Setenv("GUEST_TOKEN_TTL", "30m")
	t.Setenv("UPLOAD_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "covers")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "mongo", cfg.DatabaseDriver)
	assert.Equal(t, ScopeRoom, cfg.BroadcastScope)
	assert.True(t, cfg.LockPastEvents)
	assert.Equal(t, 30*time.Minute, cfg.GuestTokenTTL)
	assert.Equal(t, "s3", cfg.UploadBackend)
	assert.Equal(t, "covers", cfg.S3.Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"bad port", map[string]string{"JWT_SECRET": "s", "PORT": "http"}},
		{"bad ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "forever"}},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "DATABASE_DRIVER": "postgres"}},
		{"bad scope", map[string]string{"JWT_SECRET": "s", "BROADCAST_SCOPE": "everyone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

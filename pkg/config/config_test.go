package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "JWT_ACCESS_TTL", "REMINDER_SPEC", "AI_RETRIES", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, "0 9 * * *", cfg.ReminderSpec)
	assert.Equal(t, 48*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 1, cfg.AI.Retries)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := FromEnv()

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "abc")
	t.Setenv("JWT_ACCESS_TTL", "soon")
	t.Setenv("COOKIE_SECURE", "maybe")

	cfg := FromEnv()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.False(t, cfg.CookieSecure)
}

func TestOverlayFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_port: 7070
jwt_secret: from-file
reminder_window: 24h
ai:
  provider: ollama
  model: llama3
`), 0o600))

	cfg := Config{ServerPort: 8080, JWTAccessSecret: "from-env", AI: AIConfig{Retries: 1}}
	require.NoError(t, overlayFile(&cfg, path))

	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "from-file", cfg.JWTAccessSecret)
	assert.Equal(t, 24*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, "llama3", cfg.AI.Model)
	assert.Equal(t, 1, cfg.AI.Retries)
}

func TestValidate(t *testing.T) {
	cfg := Config{DatabaseURL: "sqlite://x.db", JWTAccessSecret: "a"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_REFRESH_SECRET")

	cfg.JWTRefreshSecret = "b"
	assert.NoError(t, cfg.Validate())
}

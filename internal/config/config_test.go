package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("TWILIO_ACCOUNT_SID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL())
	assert.Equal(t, 5*1024*1024, cfg.Intake.MaxPhotoBytes)
	assert.Equal(t, 24*60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window())
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Storage.Enabled())
	assert.Equal(t, "grievance:", cfg.Redis.KeyPrefix)
	assert.Equal(t, cfg.App.Name, cfg.Redis.ClientName)
	assert.Equal(t, cfg.App.Name, cfg.Logger.Service)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("INTAKE_TICKET_RETRIES", "not-a-number")
	t.Setenv("APP_NAME", "ward-portal")
	t.Setenv("APP_ENV", "staging")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL())
	assert.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 5, cfg.Intake.TicketRetries)
	assert.Equal(t, "ward-portal", cfg.Redis.ClientName)
	assert.Equal(t, "ward-portal", cfg.Logger.Service)
	assert.Equal(t, "staging", cfg.Logger.Env)
}

func TestLoadRejectsUnknownSessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "etcd")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	require.Error(t, err)
}

func TestFeatureToggles(t *testing.T) {
	assert.True(t, WhatsAppConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1"}.Enabled())
	assert.True(t, EmailConfig{Host: "smtp.local"}.Enabled())
	assert.True(t, StorageConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "s"}.Enabled())
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
}

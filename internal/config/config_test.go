package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_NAME", "test.db")
	t.Setenv("PORT", "8080")
	t.Setenv("GCP_PROJECT", "test-project")

	cfg := Load()

	assert.Equal(t, "test.db", cfg.DBName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6, cfg.Negotiation.MaxRounds)
	assert.Equal(t, 14*24*time.Hour, cfg.Negotiation.InactivityWindow)
	assert.False(t, cfg.Inngest.Enabled())
	assert.False(t, cfg.Slack.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_NAME", "test.db")
	t.Setenv("PORT", "8080")
	t.Setenv("GCP_PROJECT", "test-project")
	t.Setenv("NEGOTIATION_MAX_ROUNDS", "4")
	t.Setenv("THREAD_INACTIVITY_WINDOW", "72h")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL_ID", "C123")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, 4, cfg.Negotiation.MaxRounds)
	assert.Equal(t, 72*time.Hour, cfg.Negotiation.InactivityWindow)
	assert.Equal(t, 0, cfg.Redis.DB, "invalid integers fall back to the default")
	assert.True(t, cfg.Slack.Enabled())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

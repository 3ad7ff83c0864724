package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "wesee")
	t.Setenv("DB_USER", "wesee")
	t.Setenv("SCRAPER_SECRET_KEY", "test-secret")
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_USER", "wesee")
	t.Setenv("SCRAPER_SECRET_KEY", "x")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingRequiredEnv))
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.NotContains(t, err.Error(), "DB_USER")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5432", cfg.Database.DBPort)
	assert.Equal(t, int32(10), cfg.Database.PoolMaxConns)
	assert.Equal(t, "wesee.tasks", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "wesee.scrape", cfg.RabbitMQ.ScrapeQueue)
	assert.Equal(t, "wesee.cv", cfg.RabbitMQ.CVQueue)
	assert.Equal(t, 5, cfg.Outbox.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Outbox.PublishTimeout)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.True(t, cfg.Scraper.Headless)
	assert.Equal(t, 10*time.Minute, cfg.Redis.ProfileTTL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("SCRAPER_HEADLESS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 500*time.Millisecond, cfg.Outbox.PollInterval)
	assert.False(t, cfg.Scraper.Headless)
}

func TestLoad_InvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("RABBITMQ_PREFETCH", "many")
	t.Setenv("DB_CONNECT_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInvalidEnv))
	assert.Contains(t, err.Error(), "RABBITMQ_PREFETCH")
	assert.Contains(t, err.Error(), "DB_CONNECT_TIMEOUT")
}

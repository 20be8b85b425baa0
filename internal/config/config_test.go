package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("STATE_BACKEND", "")
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "nexus-talent-os-state", cfg.Storage.StateKey)
	assert.Equal(t, int64(5*1024*1024), cfg.Storage.MaxStateBytes)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.ChatModel)
	assert.False(t, cfg.Qdrant.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Network.ProbeTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STATE_BACKEND", "Postgres")
	t.Setenv("QDRANT_ENABLED", "true")
	t.Setenv("WORKER_CONCURRENCY", "not-a-number")
	t.Setenv("RETRY_INITIAL_DELAY", "250ms")
	t.Setenv("DB_NAME", "talent")

	cfg := Load()
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.True(t, cfg.Qdrant.Enabled)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.RetryInitialDelay)
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=talent")
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "warn", Format: "json"}}
	log, err := NewLogger(cfg, false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = NewLogger(cfg, true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = NewLogger(&Config{Log: LogConfig{Level: "loud"}}, false)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel), "unknown levels fall back to info")
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

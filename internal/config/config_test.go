package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "render-1", cfg.WorkerID)
	assert.Equal(t, "render.work", cfg.StreamKey)
	assert.Equal(t, "render-workers", cfg.ConsumerGroup)
	assert.Equal(t, "render.done", cfg.ResultStream)
	assert.Equal(t, time.Second, cfg.BlockTime)
	assert.True(t, cfg.ExprFiltersEnabled)
	assert.Equal(t, "render:filters", cfg.ExprFiltersKey)
	assert.Equal(t, 500*time.Millisecond, cfg.LookupTimeout)
	assert.Equal(t, 2, cfg.SuggestDistance)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "render:data:job-1", cfg.DataKey("job-1"))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("WORKER_ID", "render-7")
	t.Setenv("SUGGEST_DISTANCE", "0")
	t.Setenv("EXPR_FILTERS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "render-7", cfg.WorkerID)
	assert.Equal(t, 0, cfg.SuggestDistance)
	assert.False(t, cfg.ExprFiltersEnabled)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Contains(t, cfg.String(), "WorkerID=render-7")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"log level", "LOG_LEVEL", "verbose"},
		{"health port", "HEALTH_PORT", "70000"},
		{"suggest distance", "SUGGEST_DISTANCE", "-1"},
		{"block time", "BLOCK_TIME", "0s"},
		{"malformed", "REDIS_DB", "zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

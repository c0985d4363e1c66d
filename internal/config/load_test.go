package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, 4096, cfg.Cache.Capacity)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "echo", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FASTDSL_SERVER_PORT", "9999")
	t.Setenv("FASTDSL_SCHEDULER_WORKERS", "4")
	t.Setenv("FASTDSL_CACHE_ENABLED", "false")
	t.Setenv("FASTDSL_LLM_PROVIDER", "gemini")
	t.Setenv("FASTDSL_LLM_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Scheduler.Workers)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "FASTDSL_SERVER_PORT", "70000"},
		{"unknown log level", "FASTDSL_SERVER_LOG_LEVEL", "verbose"},
		{"zero workers", "FASTDSL_SCHEDULER_WORKERS", "0"},
		{"negative cache capacity", "FASTDSL_CACHE_CAPACITY", "-1"},
		{"unknown provider", "FASTDSL_LLM_PROVIDER", "oracle"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

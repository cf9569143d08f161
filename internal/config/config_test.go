package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "METRICS_PORT", "LOG_LEVEL", "API_KEY", "LLM_BASE_URL", "LLM_MODEL",
		"LLM_TEMPERATURE", "LLM_TIMEOUT", "REDIS_URL", "SESSION_TTL", "DATABASE_URL",
		"CATALOG_SOURCE", "CHROME_BIN", "EXPORT_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.MetricsPort)
	assert.Equal(t, DefaultLLMModel, cfg.LLMModel)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLMBaseURL)
	assert.InDelta(t, 0.7, cfg.LLMTemperature, 1e-6)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, CatalogBuiltin, cfg.CatalogSource)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "secret")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("CATALOG_SOURCE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/elif")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIKey)
	assert.InDelta(t, 0.2, cfg.LLMTemperature, 1e-6)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Empty(t, cfg.Warnings())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":      {"LLM_TIMEOUT": "soon"},
		"bad temperature":   {"LLM_TEMPERATURE": "warm"},
		"temperature range": {"LLM_TEMPERATURE": "3"},
		"zero temperature":  {"LLM_TEMPERATURE": "0"},
		"below zero":        {"LLM_TEMPERATURE": "-0.1"},
		"postgres no dsn":   {"CATALOG_SOURCE": "postgres"},
		"unknown source":    {"CATALOG_SOURCE": "s3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestWarningsWithoutAPIKey(t *testing.T) {
	cfg := &Config{}
	warnings := cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "API_KEY")
}

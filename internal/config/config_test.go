package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askgemini/internal/apperr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "gemini-1.5-flash", cfg.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, 0.9, cfg.Temperature)
	assert.Equal(t, 2048, cfg.MaxOutputTokens)
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Model, cfg.Model)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("model: gemini-1.5-pro\ntemperature: 0.2\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "gemini-1.5-pro", cfg.Model)
		assert.Equal(t, 0.2, cfg.Temperature)
		// Untouched fields keep defaults.
		assert.Equal(t, 10, cfg.HistoryWindow)
	})

	t.Run("malformed file is a config error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, apperr.IsConfig(err))
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY sets the credential", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "test-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "test-key", cfg.APIKey)
	})

	t.Run("ASK_MODEL overrides the model", func(t *testing.T) {
		t.Setenv("ASK_MODEL", "gemini-2.0-flash")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	})

	t.Run("ASK_TIMEOUT must parse as a duration", func(t *testing.T) {
		t.Setenv("ASK_TIMEOUT", "not-a-duration")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 60*time.Second, cfg.Timeout)

		t.Setenv("ASK_TIMEOUT", "90s")
		cfg.applyEnvOverrides()
		assert.Equal(t, 90*time.Second, cfg.Timeout)
	})
}

func TestRequireAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.RequireAPIKey()
	require.Error(t, err)
	assert.True(t, apperr.IsConfig(err))
	assert.Contains(t, err.Error(), APIKeyEnvVar)

	cfg.APIKey = "k"
	assert.NoError(t, cfg.RequireAPIKey())
}

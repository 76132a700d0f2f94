// Package config holds all ask configuration: generation defaults, the
// API credential, and the names of the per-directory state files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"askgemini/internal/apperr"
)

const (
	// APIKeyEnvVar is the environment variable carrying the credential.
	APIKeyEnvVar = "GEMINI_API_KEY"

	// HistoryFileName is the per-directory exchange log.
	HistoryFileName = ".ask_history.json"
	// LocalContextFileName is the per-directory instruction file.
	LocalContextFileName = ".ask_context.local"
	// GeneralContextFileName is the home-directory instruction file.
	GeneralContextFileName = ".ask_context.general"
)

// Config holds all ask configuration.
type Config struct {
	// Model is the default generation model.
	Model string `yaml:"model"`

	// BaseURL is the API root, up to and including the version segment.
	BaseURL string `yaml:"base_url"`

	// Timeout is the HTTP transport timeout.
	Timeout time.Duration `yaml:"timeout"`

	// APIKey is the credential. Never written to the config file by Save;
	// normally sourced from GEMINI_API_KEY.
	APIKey string `yaml:"-"`

	// HistoryWindow is the number of stored exchanges replayed into each
	// request. Fixed recency cutoff, not a per-call option.
	HistoryWindow int `yaml:"history_window"`

	// Generation parameters sent with every request.
	Temperature     float64 `yaml:"temperature"`
	TopP            float64 `yaml:"top_p"`
	TopK            int     `yaml:"top_k"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`

	// TTSLanguage is the default language for audio summaries.
	TTSLanguage string `yaml:"tts_language"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:           "gemini-1.5-flash",
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Timeout:         60 * time.Second,
		HistoryWindow:   10,
		Temperature:     0.9,
		TopP:            1.0,
		TopK:            1,
		MaxOutputTokens: 2048,
		TTSLanguage:     "es",
	}
}

// DefaultPath returns the user config file location under the home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ask", "config.yaml")
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, apperr.New(apperr.KindConfig, "failed to read config", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperr.New(apperr.KindConfig, "failed to parse config", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets the environment win over file values.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv(APIKeyEnvVar); key != "" {
		c.APIKey = key
	}
	if model := os.Getenv("ASK_MODEL"); model != "" {
		c.Model = model
	}
	if base := os.Getenv("ASK_BASE_URL"); base != "" {
		c.BaseURL = base
	}
	if raw := os.Getenv("ASK_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			c.Timeout = d
		}
	}
}

// RequireAPIKey fails fast before any API call is attempted.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return apperr.Newf(apperr.KindConfig,
			"the %s environment variable is not set; obtain an API key and export it, e.g. export %s='YOUR_API_KEY'",
			APIKeyEnvVar, APIKeyEnvVar)
	}
	return nil
}

// Save writes the configuration to a YAML file, creating the directory.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

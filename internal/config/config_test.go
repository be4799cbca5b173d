package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Server.Port)
	assert.Equal(t, "uploads", cfg.Server.UploadsDir)
	assert.Equal(t, 10, cfg.Server.MaxUploadMB)
	assert.Equal(t, "gemini", cfg.Assessment.Provider)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, cfg.Assessment.Models)
	assert.Equal(t, 60*time.Second, cfg.Assessment.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Empty(t, cfg.Demand.Titles)
}

func TestLoadFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "kiosk.yaml")
	content := `
server:
  port: "9000"
assessment:
  provider: ollama
  models: [llava, bakllava]
retry:
  max_retries: 5
  base_delay: 250ms
store:
  driver: sqlite
  path: /var/lib/bookswap/intakes.db
demand:
  titles: ["Local Legends"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.Assessment.Provider)
	assert.Equal(t, []string{"llava", "bakllava"}, cfg.Assessment.Models)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/bookswap/intakes.db", cfg.Store.Path)
	assert.Equal(t, []string{"Local Legends"}, cfg.Demand.Titles)
}

func TestLoadEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BOOKSWAP_SERVER_PORT", "7000")
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("GEMINI_MODELS", "gemini-2.5-pro, gemini-2.5-flash")
	t.Setenv("CATALOGING_PROVIDER", "gemini")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "legacy-key", cfg.Gemini.APIKey)
	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, cfg.Assessment.Models)
}

func TestLoadProviderDefaultsModels(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BOOKSWAP_ASSESSMENT_PROVIDER", "openai")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o"}, cfg.Assessment.Models)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		contains string
	}{
		{"bad provider", func(c *Config) { c.Assessment.Provider = "claude" }, "unsupported provider"},
		{"no models", func(c *Config) { c.Assessment.Models = nil }, "at least one assessment model"},
		{"bad store", func(c *Config) { c.Store.Driver = "redis" }, "unsupported store driver"},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "max_retries"},
		{"tiny uploads", func(c *Config) { c.Server.MaxUploadMB = 0 }, "max_upload_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:     ServerConfig{MaxUploadMB: 10},
				Assessment: AssessmentConfig{Provider: "gemini", Models: []string{"gemini-2.5-flash"}},
				Store:      StoreConfig{Driver: "memory"},
			}
			require.NoError(t, cfg.Validate())

			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Provider.Model)
	assert.Equal(t, "sqlite", cfg.Storage.Store)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
storage:
  store: memory
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Store)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Provider.Model)
	assert.Equal(t, "uploads", cfg.Uploads.Dir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_EnvExpansionAndOverrides(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "sk-secret")
	t.Setenv("PORT", "9999")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  apiKey: ${TEST_GROQ_KEY}
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.Provider.APIKey)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "cid", cfg.Auth.GoogleClientID)
	assert.Equal(t, "csecret", cfg.Auth.GoogleClientSecret)
}

func TestExpandEnvVars_UnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${DEFINITELY_NOT_SET_12345}", expandEnvVars("${DEFINITELY_NOT_SET_12345}"))
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))

	cfg.Server.Port = 70000
	cfg.Storage.Store = "postgres"
	cfg.Logging.Level = "loud"
	cfg.Auth.GoogleClientID = "cid"

	issues := Validate(&cfg)
	paths := make([]string, 0, len(issues))
	for _, issue := range issues {
		paths = append(paths, issue.Path)
	}
	assert.Contains(t, paths, "server.port")
	assert.Contains(t, paths, "storage.store")
	assert.Contains(t, paths, "logging.level")
	assert.Contains(t, paths, "auth.googleClientId")
}

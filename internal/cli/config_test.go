package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "default", cfg.CurrentProfile)
	require.Contains(t, cfg.Profiles, "default")
	assert.Equal(t, "http://localhost:8080", cfg.Profiles["default"].ServerURL)
}

func TestLoadConfig_NoConfigFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.CurrentProfile)
}

func TestLoadConfig_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `current_profile: production
profiles:
  production:
    server_url: https://hooks.example.com
    database_url: postgres://hookpipe:secret@db:5432/hookpipe
    token: tok-abc123
`
	err := os.WriteFile(configPath, []byte(configContent), 0600)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.CurrentProfile)
	require.Contains(t, cfg.Profiles, "production")
	assert.Equal(t, "https://hooks.example.com", cfg.Profiles["production"].ServerURL)
	assert.Equal(t, "tok-abc123", cfg.Profiles["production"].Token)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("current_profile: default\n"), 0600))

	t.Setenv("HOOKPIPE_SERVER_URL", "http://env-server:9000")
	t.Setenv("HOOKPIPE_DATABASE_URL", "postgres://env-db:5432/hookpipe")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	profile, err := cfg.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "http://env-server:9000", profile.ServerURL)
	assert.Equal(t, "postgres://env-db:5432/hookpipe", profile.DatabaseURL)
}

func TestConfig_SaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.path = configPath

	err := cfg.SaveProfile("staging", &Profile{
		ServerURL: "https://staging.example.com",
		Token:     "tok-staging",
	})
	require.NoError(t, err)

	reloaded, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "staging", reloaded.CurrentProfile)
	profile, err := reloaded.GetProfile("staging")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", profile.ServerURL)
	assert.Equal(t, "tok-staging", profile.Token)
}

func TestConfig_GetProfile_NotFound(t *testing.T) {
	cfg := DefaultConfig()

	_, err := cfg.GetProfile("missing")
	assert.Error(t, err)
}

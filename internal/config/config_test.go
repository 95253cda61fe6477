package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.GitHubToken)
	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.Equal(t, "./archive.db", cfg.SQLitePath)
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "http://localhost:8080", cfg.APIEndpoint)
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := &Config{StorageType: "sqlite"}

	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GITHUB_TOKEN", cfgErr.Field)
}

func TestValidateStorageType(t *testing.T) {
	cfg := &Config{GitHubToken: "tok", StorageType: "redis"}
	require.Error(t, cfg.Validate())

	cfg.StorageType = "postgres"
	require.Error(t, cfg.Validate(), "postgres without URL")

	cfg.PostgresURL = "postgres://localhost/archive"
	require.NoError(t, cfg.Validate())
}

func TestDestFor(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, filepath.Join(".", "archive", "acme"), cfg.DestFor("acme"))

	cfg.DestDir = "/backups/github"
	assert.Equal(t, "/backups/github", cfg.DestFor("acme"))
}

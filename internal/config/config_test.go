package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesTemplatesAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	// First run materializes both templates.
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.FileExists(t, filepath.Join(dir, "credentials.toml"))

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.Equal(t, dir, cfg.Data.Dir)
	assert.Equal(t, filepath.Join(dir, "strategy_data.json"), cfg.Data.StrategyFile)
	assert.Equal(t, filepath.Join(dir, "instruments.db"), cfg.Data.InstrumentDB)
	assert.Equal(t, 100.0, cfg.Firefight.DefaultBuffer)
	assert.Equal(t, 15*time.Second, cfg.Firefight.RefreshInterval)
	assert.Equal(t, time.Hour, cfg.InstrumentTTL())
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[data]
instrument_ttl = "30m"

[firefight]
default_buffer = 150.0
refresh_interval = "5s"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 150.0, cfg.Firefight.DefaultBuffer)
	assert.Equal(t, 5*time.Second, cfg.Firefight.RefreshInterval)
	assert.Equal(t, 30*time.Minute, cfg.InstrumentTTL())
}

func TestLoadCredentialsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	creds := `
[angelone]
api_key = "file-key"
client_id = "A123456"
pin = "1234"
totp_secret = "JBSWY3DPEHPK3PXP"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(creds), 0600))
	t.Setenv("ANGELONE_API_KEY", "env-key")

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Environment wins over the file.
	assert.Equal(t, "env-key", cfg.Credentials.AngelOne.APIKey)
	assert.Equal(t, "A123456", cfg.Credentials.AngelOne.ClientID)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", cfg.Credentials.AngelOne.TOTPSecret)
}

func TestLoadRejectsSubSecondRefresh(t *testing.T) {
	dir := t.TempDir()
	content := `
[firefight]
refresh_interval = "500ms"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Firefight Dashboard Configuration

[data]
# Data directory (defaults to the config directory)
# dir = "/home/user/.config/firefight"
# Strategy state file
# strategy_file = "strategy_data.json"
# Instrument master cache
# instrument_db = "instruments.db"
# Instrument master freshness window
instrument_ttl = "1h"
# CSV export destination
# export_dir = "/home/user/exports"

[firefight]
# Default safety-band buffer in points for new strategy groups
default_buffer = 100.0
# Auto-refresh interval for 'dashboard --watch'
refresh_interval = "15s"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "2006-01-02"
`

const credentialsTemplate = `# Angel One SmartAPI Credentials
# KEEP THIS FILE SECURE - chmod 600 recommended

[angelone]
api_key = ""
client_id = ""
pin = ""
# Base32 TOTP secret for two-factor login
totp_secret = ""
`

func writeTemplateConfig(configDir string) error {
	return writeTemplate(configDir, "config.toml", configTemplate, 0644)
}

func writeTemplateCredentials(configDir string) error {
	return writeTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
}

func writeTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}

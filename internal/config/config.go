// Package config provides configuration management for the firefighting dashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Data        DataConfig      `mapstructure:"data"`
	Firefight   FirefightConfig `mapstructure:"firefight"`
	UI          UIConfig        `mapstructure:"ui"`
	Credentials Credentials     `mapstructure:"-"` // Loaded separately
}

// DataConfig holds file and cache locations.
type DataConfig struct {
	Dir            string `mapstructure:"dir"`             // defaults to the config dir
	StrategyFile   string `mapstructure:"strategy_file"`   // strategy_data.json
	InstrumentDB   string `mapstructure:"instrument_db"`   // instruments.db
	InstrumentTTL  string `mapstructure:"instrument_ttl"`  // e.g. "1h"
	ExportDir      string `mapstructure:"export_dir"`      // CSV export destination
}

// FirefightConfig holds firefighting defaults.
type FirefightConfig struct {
	DefaultBuffer   float64       `mapstructure:"default_buffer"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	AngelOne AngelOneCredentials `mapstructure:"angelone"`
}

// AngelOneCredentials holds Angel One SmartAPI credentials.
type AngelOneCredentials struct {
	APIKey     string `mapstructure:"api_key"`
	ClientID   string `mapstructure:"client_id"`
	PIN        string `mapstructure:"pin"`
	TOTPSecret string `mapstructure:"totp_secret"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/firefight"
	}
	return filepath.Join(home, ".config", "firefight")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyDefaults(cfg, configDir)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("firefight.default_buffer", 100.0)
	v.SetDefault("firefight.refresh_interval", "15s")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("data.instrument_ttl", "1h")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := writeTemplateConfig(configDir); werr != nil {
				return werr
			}
		} else {
			return err
		}
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return writeTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = configDir
	}
	if cfg.Data.StrategyFile == "" {
		cfg.Data.StrategyFile = filepath.Join(cfg.Data.Dir, "strategy_data.json")
	}
	if cfg.Data.InstrumentDB == "" {
		cfg.Data.InstrumentDB = filepath.Join(cfg.Data.Dir, "instruments.db")
	}
	if cfg.Data.ExportDir == "" {
		cfg.Data.ExportDir = cfg.Data.Dir
	}
	if cfg.Firefight.DefaultBuffer <= 0 {
		cfg.Firefight.DefaultBuffer = 100
	}
	if cfg.Firefight.RefreshInterval <= 0 {
		cfg.Firefight.RefreshInterval = 15 * time.Second
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANGELONE_API_KEY"); v != "" {
		cfg.Credentials.AngelOne.APIKey = v
	}
	if v := os.Getenv("ANGELONE_CLIENT_ID"); v != "" {
		cfg.Credentials.AngelOne.ClientID = v
	}
	if v := os.Getenv("ANGELONE_PIN"); v != "" {
		cfg.Credentials.AngelOne.PIN = v
	}
	if v := os.Getenv("ANGELONE_TOTP_SECRET"); v != "" {
		cfg.Credentials.AngelOne.TOTPSecret = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Firefight.DefaultBuffer < 0 {
		return fmt.Errorf("default_buffer must be non-negative")
	}
	if c.Firefight.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1s")
	}
	return nil
}

// InstrumentTTL returns the instrument master freshness window.
func (c *Config) InstrumentTTL() time.Duration {
	d, err := time.ParseDuration(c.Data.InstrumentTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

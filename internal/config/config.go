// Package config provides configuration management for the trading journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Journal JournalConfig `mapstructure:"journal"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// JournalConfig holds journal data configuration.
type JournalConfig struct {
	// DataDir is where profile databases and attachment files live.
	DataDir string `mapstructure:"data_dir"`
	// PricePrecision is the significant-digit precision for derived
	// average prices.
	PricePrecision int `mapstructure:"price_precision"`
	// DefaultBroker is preselected when recording executions.
	DefaultBroker string `mapstructure:"default_broker"`
	// DefaultInstrument is preselected when recording executions.
	DefaultInstrument string `mapstructure:"default_instrument"`
}

// UIConfig holds output-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trading-companion"
	}
	return filepath.Join(home, ".config", "trading-companion")
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".local/share/trading-companion"
	}
	return filepath.Join(home, ".local", "share", "trading-companion")
}

// AttachmentsDir returns where attachment files are stored on disk.
func (c *Config) AttachmentsDir() string {
	return filepath.Join(c.Journal.DataDir, "attachments")
}

// ProfilesDir returns where profile databases are stored on disk.
func (c *Config) ProfilesDir() string {
	return filepath.Join(c.Journal.DataDir, "profiles")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("journal.data_dir", DefaultDataDir())
	v.SetDefault("journal.price_precision", 7)
	v.SetDefault("journal.default_broker", "ZERODHA")
	v.SetDefault("journal.default_instrument", "EQUITY")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADING_COMPANION_DATA_DIR"); v != "" {
		cfg.Journal.DataDir = v
	}
	if v := os.Getenv("TRADING_COMPANION_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Journal.DataDir == "" {
		return fmt.Errorf("journal data_dir must not be empty")
	}
	if c.Journal.PricePrecision < 1 || c.Journal.PricePrecision > 15 {
		return fmt.Errorf("price_precision must be between 1 and 15")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

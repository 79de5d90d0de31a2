// Package config loads and validates the gridledger configuration from a
// YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DataConfig holds the CSV data-source configuration
type DataConfig struct {
	CapacityURL     string        `mapstructure:"capacity_url"`
	HistoryURL      string        `mapstructure:"history_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	FilePath        string `mapstructure:"file_path"`
	FilePermissions uint32 `mapstructure:"file_permissions"`
	DirPermissions  uint32 `mapstructure:"dir_permissions"`
}

// ServerConfig holds the HTTP interface configuration
type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NotifyConfig holds the net-addition Telegram notifier configuration
type NotifyConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	ThresholdGW    float64       `mapstructure:"threshold_gw"`
	WindowMonths   int           `mapstructure:"window_months"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("GRIDLEDGER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.capacity_url", "http://localhost:8081/data/Capacity.csv")
	v.SetDefault("data.history_url", "http://localhost:8081/data/capacity.csv")
	v.SetDefault("data.timeout", "30s")
	v.SetDefault("data.refresh_interval", "15m")

	v.SetDefault("storage.file_path", "./data/gridledger.json")
	v.SetDefault("storage.file_permissions", 0o600)
	v.SetDefault("storage.dir_permissions", 0o700)

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.threshold_gw", 1.0)
	v.SetDefault("notify.window_months", 12)
	v.SetDefault("notify.max_retries", 3)
	v.SetDefault("notify.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Data.CapacityURL == "" {
		return fmt.Errorf("data.capacity_url is required")
	}
	if c.Data.HistoryURL == "" {
		return fmt.Errorf("data.history_url is required")
	}
	if c.Data.Timeout <= 0 {
		return fmt.Errorf("data.timeout must be positive")
	}
	if c.Data.RefreshInterval < time.Minute {
		return fmt.Errorf("data.refresh_interval must be at least 1 minute")
	}

	if c.Storage.FilePath == "" {
		return fmt.Errorf("storage.file_path is required")
	}

	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	if c.Notify.Enabled {
		if c.Notify.BotToken == "" {
			return fmt.Errorf("notify.bot_token is required when notify is enabled")
		}
		if c.Notify.ChatID == "" {
			return fmt.Errorf("notify.chat_id is required when notify is enabled")
		}
		if c.Notify.ThresholdGW < 0 {
			return fmt.Errorf("notify.threshold_gw must not be negative")
		}
		if c.Notify.WindowMonths < 1 {
			return fmt.Errorf("notify.window_months must be at least 1")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// FileMode returns the configured storage file permissions.
func (c *StorageConfig) FileMode() os.FileMode {
	return os.FileMode(c.FilePermissions)
}

// DirMode returns the configured storage directory permissions.
func (c *StorageConfig) DirMode() os.FileMode {
	return os.FileMode(c.DirPermissions)
}

package config

import (
	"encoding/json"
)

// Config represents the main Snaplink configuration
type Config struct {
	// Telegram
	Telegram TelegramConfig `json:"telegram" mapstructure:"telegram"`

	// Host holds the remote image host settings
	Host HostConfig `json:"host" mapstructure:"host"`

	// Webhook configuration
	Webhook WebhookConfig `json:"webhook" mapstructure:"webhook"`

	// Storage configuration
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string `json:"bot_token" mapstructure:"bot_token"`
}

// HostConfig holds the remote web host configuration.
// BaseURL is the site that serves uploaded images; UploadDir is the
// local directory that same site serves as /uploads.
type HostConfig struct {
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	UploadDir string `json:"upload_dir" mapstructure:"upload_dir"`

	// UploadTimeout bounds the remote upload attempt, in seconds
	UploadTimeout int `json:"upload_timeout" mapstructure:"upload_timeout"`
}

// WebhookConfig holds the snapshot webhook server configuration
type WebhookConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
}

// StorageConfig holds session database configuration
type StorageConfig struct {
	DBPath string `json:"db_path" mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			BaseURL:       "http://shareimage.42web.io",
			UploadTimeout: 30,
		},
		Webhook: WebhookConfig{
			Host:               "0.0.0.0",
			Port:               5000,
			RateLimitPerMinute: 100,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

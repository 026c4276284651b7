package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}

	if c.Host.BaseURL == "" {
		return fmt.Errorf("host base URL is required")
	}
	if err := validateBaseURL(c.Host.BaseURL); err != nil {
		return fmt.Errorf("invalid host base URL: %w", err)
	}

	if c.Host.UploadTimeout <= 0 {
		return fmt.Errorf("host upload timeout must be positive, got %d", c.Host.UploadTimeout)
	}

	if c.Webhook.Port < 1 || c.Webhook.Port > 65535 {
		return fmt.Errorf("invalid webhook port: %d", c.Webhook.Port)
	}

	if c.Webhook.RateLimitPerMinute < 0 {
		return fmt.Errorf("webhook rate limit must not be negative, got %d", c.Webhook.RateLimitPerMinute)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}

// validateBaseURL checks that the host URL is usable for link construction.
// A bare host without scheme is accepted (e.g. "localhost/my_shop").
func validateBaseURL(raw string) error {
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}

	return nil
}

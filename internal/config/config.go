package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML configuration file, applies defaults and
// expands environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Storage.Path == "" {
		errors = append(errors, fmt.Errorf("storage.path is required"))
	} else if err := validatePath(c.Storage.Path, "storage.path"); err != nil {
		errors = append(errors, err)
	}

	if c.Telegram.Token == "" {
		errors = append(errors, fmt.Errorf("telegram.token is required"))
	} else if err := validateTelegramToken(c.Telegram.Token); err != nil {
		errors = append(errors, err)
	}

	if len(c.Telegram.AllowedUsers) == 0 {
		errors = append(errors, fmt.Errorf("telegram.allowed_users cannot be empty"))
	} else {
		for _, id := range c.Telegram.AllowedUsers {
			if !isDigits(id) {
				errors = append(errors, fmt.Errorf("telegram.allowed_users contains invalid user ID: %s (expected numeric Telegram user ID)", id))
			}
		}
	}

	if !c.Platforms.Bluesky.Enabled && !c.Platforms.Mastodon.Enabled {
		errors = append(errors, fmt.Errorf("at least one platform must be enabled (platforms.bluesky or platforms.mastodon)"))
	}

	if c.Platforms.Bluesky.Enabled {
		if c.Platforms.Bluesky.Identifier == "" {
			errors = append(errors, fmt.Errorf("platforms.bluesky.identifier is required when bluesky is enabled"))
		}
		if c.Platforms.Bluesky.Password == "" {
			errors = append(errors, fmt.Errorf("platforms.bluesky.password is required when bluesky is enabled"))
		}
	}

	if c.Platforms.Mastodon.Enabled {
		if c.Platforms.Mastodon.Server == "" {
			errors = append(errors, fmt.Errorf("platforms.mastodon.server is required when mastodon is enabled"))
		} else if !strings.HasPrefix(c.Platforms.Mastodon.Server, "https://") && !strings.HasPrefix(c.Platforms.Mastodon.Server, "http://") {
			errors = append(errors, fmt.Errorf("platforms.mastodon.server must be a URL (e.g. https://fosstodon.org)"))
		}
		if c.Platforms.Mastodon.AccessToken == "" {
			errors = append(errors, fmt.Errorf("platforms.mastodon.access_token is required when mastodon is enabled"))
		} else if err := validateAPIKey(c.Platforms.Mastodon.AccessToken, "platforms.mastodon.access_token"); err != nil {
			errors = append(errors, err)
		}
	}

	if c.Scheduler.IntervalSeconds < 1 {
		errors = append(errors, fmt.Errorf("scheduler.interval_seconds must be >= 1"))
	}
	if c.Scheduler.PublishTimeoutSeconds < 1 {
		errors = append(errors, fmt.Errorf("scheduler.publish_timeout_seconds must be >= 1"))
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errors = append(errors, fmt.Errorf("metrics.listen_addr is required when metrics are enabled"))
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	return errors
}

// IsAllowedUser reports whether the given Telegram user id is in the
// configured allow-list.
func (c *TelegramConfig) IsAllowedUser(userID string) bool {
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Helper validation functions
func validateAPIKey(key, fieldName string) error {
	if len(key) < 10 {
		return fmt.Errorf("%s is too short (minimum 10 characters, got %d)", fieldName, len(key))
	}
	return nil
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected format: <bot_id>:<token>, got: %s)", maskSecret(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}

	if !isDigits(botID) {
		return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", len(botToken))
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if strings.HasPrefix(path, "~") {
		return nil
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(c *Config) {
	if c.Storage.Path == "" {
		c.Storage.Path = "~/.crosspost"
	}

	if c.Telegram.SendTimeoutSeconds == 0 {
		c.Telegram.SendTimeoutSeconds = 30
	}

	if c.Platforms.Bluesky.Host == "" {
		c.Platforms.Bluesky.Host = "https://bsky.social"
	}
	if c.Platforms.Bluesky.TimeoutSeconds == 0 {
		c.Platforms.Bluesky.TimeoutSeconds = 30
	}
	if c.Platforms.Mastodon.TimeoutSeconds == 0 {
		c.Platforms.Mastodon.TimeoutSeconds = 30
	}

	if c.Scheduler.IntervalSeconds == 0 {
		c.Scheduler.IntervalSeconds = 60
	}
	if c.Scheduler.PublishTimeoutSeconds == 0 {
		c.Scheduler.PublishTimeoutSeconds = 30
	}

	if c.Preview.TimeoutSeconds == 0 {
		c.Preview.TimeoutSeconds = 10
	}
	if c.Preview.MaxResponseSize == 0 {
		c.Preview.MaxResponseSize = 2 << 20
	}
	if c.Preview.UserAgent == "" {
		c.Preview.UserAgent = "crosspost-bot/1.0"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// expandEnvVars expands environment variable references in the configuration.
func expandEnvVars(c *Config) {
	c.Telegram.Token = expandEnv(c.Telegram.Token)
	c.Platforms.Bluesky.Identifier = expandEnv(c.Platforms.Bluesky.Identifier)
	c.Platforms.Bluesky.Password = expandEnv(c.Platforms.Bluesky.Password)
	c.Platforms.Mastodon.AccessToken = expandEnv(c.Platforms.Mastodon.AccessToken)

	c.Storage.Path = expandHome(expandEnv(c.Storage.Path))
	c.Templates.Dir = expandHome(expandEnv(c.Templates.Dir))
}

// expandEnv expands a ${VAR} or ${VAR:default} reference.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	return os.Getenv(content)
}

// expandHome expands a leading ~ in a path.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Package config provides configuration loading and validation for the
// cross-poster bot. It supports TOML configuration files with environment
// variable expansion, default values, and comprehensive validation.
//
// Configuration structure:
//   - [storage]: Scheduled post store location
//   - [telegram]: Bot token and operator allow-list
//   - [platforms.bluesky]: Bluesky credentials
//   - [platforms.mastodon]: Mastodon server and token
//   - [scheduler]: Dispatch interval and publish timeout
//   - [templates]: Post template directory
//   - [preview]: Link preview fetching
//   - [metrics]: Prometheus listener
//   - [logging]: Logging level, format, and output
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax. For example: token = "${TELEGRAM_TOKEN}"
package config

import "path/filepath"

// Config represents the main application configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Platforms PlatformsConfig `toml:"platforms"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Templates TemplatesConfig `toml:"templates"`
	Preview   PreviewConfig   `toml:"preview"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Logging   LoggingConfig   `toml:"logging"`
}

// StorageConfig locates the scheduled post store on disk.
type StorageConfig struct {
	Path string `toml:"path"`
}

// PostsFile returns the full path to the scheduled posts file.
func (c *StorageConfig) PostsFile(filename string) string {
	return filepath.Join(c.Path, filename)
}

// TelegramConfig holds the Telegram front-end configuration.
type TelegramConfig struct {
	Token              string   `toml:"token"`
	AllowedUsers       []string `toml:"allowed_users"`
	SendTimeoutSeconds int      `toml:"send_timeout_seconds"`
	QuietMode          bool     `toml:"quiet_mode"`
}

// PlatformsConfig groups the target platform credentials.
type PlatformsConfig struct {
	Bluesky  BlueskyConfig  `toml:"bluesky"`
	Mastodon MastodonConfig `toml:"mastodon"`
}

// BlueskyConfig holds Bluesky (AT Protocol) credentials.
type BlueskyConfig struct {
	Enabled        bool   `toml:"enabled"`
	Host           string `toml:"host"`
	Identifier     string `toml:"identifier"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MastodonConfig holds Mastodon credentials.
type MastodonConfig struct {
	Enabled        bool   `toml:"enabled"`
	Server         string `toml:"server"`
	AccessToken    string `toml:"access_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SchedulerConfig controls the dispatch loop.
type SchedulerConfig struct {
	IntervalSeconds       int `toml:"interval_seconds"`
	PublishTimeoutSeconds int `toml:"publish_timeout_seconds"`
}

// TemplatesConfig locates the post template directory.
type TemplatesConfig struct {
	Dir string `toml:"dir"`
}

// PreviewConfig controls link preview fetching in the compose flow.
type PreviewConfig struct {
	Enabled         bool   `toml:"enabled"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxResponseSize int64  `toml:"max_response_size"`
	UserAgent       string `toml:"user_agent"`
}

// MetricsConfig controls the Prometheus /metrics listener.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// ABOUTME: Configuration loading and parsing for the parley chat client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parley client configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the chat server connection settings
type ServerConfig struct {
	URL string `yaml:"url"`

	DialTimeout         time.Duration `yaml:"-"`
	ReconnectMinBackoff time.Duration `yaml:"-"`
	ReconnectMaxBackoff time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	DialTimeoutRaw         string `yaml:"dial_timeout"`
	ReconnectMinBackoffRaw string `yaml:"reconnect_min_backoff"`
	ReconnectMaxBackoffRaw string `yaml:"reconnect_max_backoff"`
}

// AuthConfig holds session token persistence settings
type AuthConfig struct {
	// TokenPath is where the reusable session token is stored.
	// If empty, the client defaults to <config dir>/parley/token.
	TokenPath string `yaml:"token_path"`
}

// HistoryConfig bounds conversation retention. Zero means unlimited,
// which matches the upstream behavior of never evicting.
type HistoryConfig struct {
	MaxConversations int `yaml:"max_conversations"`
	MaxMessages      int `yaml:"max_messages"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:                 "ws://127.0.0.1:3000/ws",
			DialTimeout:         10 * time.Second,
			ReconnectMinBackoff: time.Second,
			ReconnectMaxBackoff: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server.url must be a ws:// or wss:// URL, got %q", c.Server.URL)
	}

	if c.History.MaxConversations < 0 {
		return fmt.Errorf("history.max_conversations must not be negative")
	}
	if c.History.MaxMessages < 0 {
		return fmt.Errorf("history.max_messages must not be negative")
	}

	if c.Server.ReconnectMinBackoff > c.Server.ReconnectMaxBackoff {
		return fmt.Errorf("server.reconnect_min_backoff exceeds reconnect_max_backoff")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.DialTimeoutRaw != "" {
		cfg.Server.DialTimeout, err = time.ParseDuration(cfg.Server.DialTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing dial_timeout %q: %w", cfg.Server.DialTimeoutRaw, err)
		}
	}

	if cfg.Server.ReconnectMinBackoffRaw != "" {
		cfg.Server.ReconnectMinBackoff, err = time.ParseDuration(cfg.Server.ReconnectMinBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_min_backoff %q: %w", cfg.Server.ReconnectMinBackoffRaw, err)
		}
	}

	if cfg.Server.ReconnectMaxBackoffRaw != "" {
		cfg.Server.ReconnectMaxBackoff, err = time.ParseDuration(cfg.Server.ReconnectMaxBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_max_backoff %q: %w", cfg.Server.ReconnectMaxBackoffRaw, err)
		}
	}

	return nil
}

// Package config handles resolving configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultSessionTTL is how long a session cookie stays valid unless the
// config overrides it.
const DefaultSessionTTL = Duration(30 * 24 * time.Hour)

// Duration is a [time.Duration] that round-trips through YAML as a Go
// duration string ("720h", "30m").
type Duration time.Duration

// UnmarshalYAML satisfies [yaml.Unmarshaler].
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML satisfies [yaml.Marshaler].
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the resolved application configuration.
type Config struct {
	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level"`
	// WebAddress is the host:port the web app listens on. Empty disables
	// the web server.
	WebAddress string `yaml:"web_address"`
	// DBFilepath is the path to the SQLite database file, or ":memory:".
	DBFilepath string `yaml:"db_filepath"`
	// SessionSecret signs session cookies. Must be non-empty.
	SessionSecret string `yaml:"session_secret"`
	// SessionTTL is the session cookie lifetime.
	SessionTTL Duration `yaml:"session_ttl"`
	// DevMode enables debug output, request logging, and fake data seeding.
	DevMode bool `yaml:"dev_mode"`
}

// Default returns a version of the config with all default values populated.
// Note that this configuration is _not_ valid, as the user must set
// session_secret.
func Default() *Config {
	return &Config{
		LogLevel:      "INFO",
		WebAddress:    "localhost:9999",
		DBFilepath:    filepath.Join(xdg.DataHome, "taskdeck", "db.sqlite"),
		SessionSecret: "", // must be set by the user
		SessionTTL:    DefaultSessionTTL,
		DevMode:       false,
	}
}

// Load loads a YAML configuration file from a path, merges it with defaults,
// and validates it for completeness.
func Load(path string) (*Config, error) {
	bytes, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err = yaml.Unmarshal(bytes, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for completeness.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("log_level must be one of DEBUG, INFO, WARN, ERROR; got %q", c.LogLevel)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("session_secret must be set")
	}
	if c.DBFilepath == "" {
		return fmt.Errorf("db_filepath must be set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive; got %s", c.SessionTTL.Std())
	}
	return nil
}

// Package config loads the regent configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the flat regent configuration.
type Config struct {
	// DBPath overrides the default database location (~/.regent/regent.db).
	DBPath string `yaml:"db_path,omitempty"`

	// TenantID is the default tenant (school) for CLI operations.
	TenantID string `yaml:"tenant_id,omitempty"`

	// AuthorityAddr is the default authority contact address for focus and
	// dispatch operations.
	AuthorityAddr string `yaml:"authority_addr,omitempty"`

	// StaleAfter enables the stale-escalation sweep when set, e.g. "72h".
	// Empty disables expiry entirely; there is no built-in default.
	StaleAfter string `yaml:"stale_after,omitempty"`
}

// StaleAfterDuration parses the stale_after value. Empty means disabled.
func (c *Config) StaleAfterDuration() (time.Duration, error) {
	if c.StaleAfter == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StaleAfter)
	if err != nil {
		return 0, fmt.Errorf("invalid stale_after %q: %w", c.StaleAfter, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid stale_after %q: must not be negative", c.StaleAfter)
	}
	return d, nil
}

// Path returns the config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".regent", "config.yaml"), nil
}

// Load reads the config file. A missing file yields an empty config, not an
// error; everything has a workable zero value.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config file, creating the directory if needed.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

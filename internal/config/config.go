// Package config provides configuration loading for cr.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then CRUMBS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/crumbs/internal/logging"
	"github.com/fyrsmithlabs/crumbs/internal/telemetry"
)

// Config holds the complete cr configuration.
type Config struct {
	Store   StoreConfig   `koanf:"store"`
	List    ListConfig    `koanf:"list"`
	Find    FindConfig    `koanf:"find"`
	Handoff HandoffConfig `koanf:"handoff"`
	Secrets SecretsConfig `koanf:"secrets"`
	Logging LoggingConfig `koanf:"logging"`

	Telemetry telemetry.Config `koanf:"telemetry"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	DirName string `koanf:"dir_name"` // Store directory under the store root (default: .crumbs)
}

// ListConfig holds `cr ls` settings.
type ListConfig struct {
	Limit int `koanf:"limit"` // Memories shown when no count is given (default: 20)
}

// FindConfig holds `cr find` settings.
type FindConfig struct {
	Limit int `koanf:"limit"` // Maximum search results (default: 20)
}

// HandoffConfig holds checkpoint settings.
type HandoffConfig struct {
	Window int `koanf:"window"` // Default --window for `cr handoff mark` (default: 10)
}

// SecretsConfig controls the secret guard on memory text.
type SecretsConfig struct {
	Enabled bool     `koanf:"enabled"`
	Allow   []string `koanf:"allow"` // Extra allowlist regexes
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// OTel also sends entries to the OTLP collector when telemetry is on.
	OTel bool `koanf:"otel"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:   StoreConfig{DirName: ".crumbs"},
		List:    ListConfig{Limit: 20},
		Find:    FindConfig{Limit: 20},
		Handoff: HandoffConfig{Window: 10},
		Secrets: SecretsConfig{Enabled: true},
		Logging: LoggingConfig{Level: "warn", Format: "console", OTel: true},

		Telemetry: *telemetry.NewDefaultConfig(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Store.DirName == "" {
		errs = append(errs, errors.New("store.dir_name is required"))
	} else if strings.ContainsAny(c.Store.DirName, `/\`) || c.Store.DirName == "." || c.Store.DirName == ".." {
		errs = append(errs, fmt.Errorf("store.dir_name %q must be a single directory name", c.Store.DirName))
	}
	if c.List.Limit < 1 {
		errs = append(errs, fmt.Errorf("list.limit must be >= 1, got %d", c.List.Limit))
	}
	if c.Find.Limit < 1 {
		errs = append(errs, fmt.Errorf("find.limit must be >= 1, got %d", c.Find.Limit))
	}
	if c.Handoff.Window < 1 {
		errs = append(errs, fmt.Errorf("handoff.window must be >= 1, got %d", c.Handoff.Window))
	}
	if _, err := logging.LevelFromString(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

// LoggerConfig converts the logging section into a logger configuration.
func (c *Config) LoggerConfig() *logging.Config {
	cfg := logging.NewDefaultConfig()
	if level, err := logging.LevelFromString(c.Logging.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Logging.Format
	cfg.OTel = c.Logging.OTel
	return cfg
}

// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"TIPSPLIT_ADDR" envDefault:":8080"`

	// DBPath is the SQLite database file.
	DBPath string `env:"TIPSPLIT_DB_PATH" envDefault:"./data/tipsplit.db"`

	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `env:"TIPSPLIT_ALLOWED_ORIGIN" envDefault:"*"`

	// MetricsEnabled serves Prometheus metrics on /metrics.
	MetricsEnabled bool `env:"TIPSPLIT_METRICS_ENABLED" envDefault:"true"`

	// Currency labels exported amounts.
	Currency string `env:"TIPSPLIT_CURRENCY" envDefault:"USD"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("TIPSPLIT_ADDR must not be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("TIPSPLIT_DB_PATH must not be empty"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q must be one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(errs...)
}

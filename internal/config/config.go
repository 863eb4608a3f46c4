// Package config loads rulebook settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Config holds settings shared by CLI commands. Command-line flags override
// the values loaded here.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"RULEBOOK_LOG_LEVEL" envDefault:"info"`

	// Format is the output format, text or json.
	Format string `env:"RULEBOOK_FORMAT" envDefault:"text"`

	// Collation is a BCP 47 tag for rule name ordering. Empty means byte order.
	Collation string `env:"RULEBOOK_COLLATION"`
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// CollationTag parses Collation. ok is false when no collation is set.
func (c Config) CollationTag() (tag language.Tag, ok bool, err error) {
	if c.Collation == "" {
		return language.Und, false, nil
	}
	tag, err = language.Parse(c.Collation)
	if err != nil {
		return language.Und, false, fmt.Errorf("invalid collation %q: %w", c.Collation, err)
	}
	return tag, true, nil
}

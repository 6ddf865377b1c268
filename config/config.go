// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads server configuration and the agent card from a
// TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/go-a2a/taskcore"
)

// Defaults applied to fields the file leaves unset.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string   `toml:"addr" validate:"required"`
	ReadHeaderTimeout duration `toml:"read_header_timeout"`
	ShutdownTimeout   duration `toml:"shutdown_timeout"`
}

// PushConfig configures outbound push notification delivery.
type PushConfig struct {
	// Enabled turns the push notifier on. When false the
	// tasks/pushNotification methods report unsupported.
	Enabled bool `toml:"enabled"`

	// SigningKey, when set, enables JWT signing of notification
	// requests.
	SigningKey string `toml:"signing_key"`

	MaxAttempts    int      `toml:"max_attempts" validate:"gte=0"`
	InitialBackoff duration `toml:"initial_backoff"`
	AttemptTimeout duration `toml:"attempt_timeout"`
}

// Config is the root of the configuration file.
type Config struct {
	Server ServerConfig       `toml:"server"`
	Push   PushConfig         `toml:"push"`
	Card   taskcore.AgentCard `toml:"card" validate:"required"`
}

// duration decodes TOML strings like "10s" into a time.Duration.
type duration time.Duration

var _ toml.Unmarshaler = (*duration)(nil)

// UnmarshalTOML implements toml.Unmarshaler.
func (d *duration) UnmarshalTOML(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("duration must be a string, got %T", v)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the value as a time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns a Config with all defaults applied and an empty
// agent card.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ShutdownTimeout: duration(DefaultShutdownTimeout),
		},
	}
}

// Load reads, decodes, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates configuration from TOML source, for
// callers that already hold the file contents.
func Parse(content string) (*Config, error) {
	cfg := Default()
	meta, err := toml.Decode(content, cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints and the embedded agent card.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Card.Validate()
}

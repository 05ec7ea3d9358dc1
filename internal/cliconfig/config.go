package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config holds CLI configuration for framesync.
type Config struct {
	Tolerance     time.Duration
	SoftCapacity  int
	MaxPending    int
	EmitQueueSize int

	Primary     string
	Secondary   string
	Follow      bool
	IdleTimeout time.Duration

	Journal       string
	StatsInterval time.Duration
	LogLevel      string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Tolerance:    10 * time.Millisecond,
		SoftCapacity: 1000,
		LogLevel:     "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Primary == "" {
		return fmt.Errorf("primary index is required")
	}
	if c.Secondary == "" {
		return fmt.Errorf("secondary index is required")
	}
	if c.Primary == c.Secondary {
		return fmt.Errorf("primary and secondary must be different files")
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive")
	}
	if c.SoftCapacity <= 0 {
		return fmt.Errorf("soft capacity must be positive")
	}
	if c.MaxPending < 0 {
		return fmt.Errorf("max pending must not be negative")
	}
	if c.EmitQueueSize < 0 {
		return fmt.Errorf("emit queue size must not be negative")
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative")
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("stats interval must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

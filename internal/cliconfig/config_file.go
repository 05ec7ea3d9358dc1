package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Tolerance     string `toml:"tolerance"`
	SoftCapacity  int    `toml:"soft_capacity"`
	MaxPending    int    `toml:"max_pending"`
	EmitQueueSize int    `toml:"emit_queue_size"`
	Primary       string `toml:"primary"`
	Secondary     string `toml:"secondary"`
	Follow        *bool  `toml:"follow"`
	IdleTimeout   string `toml:"idle_timeout"`
	Journal       string `toml:"journal"`
	StatsInterval string `toml:"stats_interval"`
	LogLevel      string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.framesync/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".framesync", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("primary", fc.Primary, &cfg.Primary)
	s.setString("secondary", fc.Secondary, &cfg.Secondary)
	s.setString("journal", fc.Journal, &cfg.Journal)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("tolerance", fc.Tolerance, &cfg.Tolerance); err != nil {
		return err
	}
	if err := s.setDuration("idle-timeout", fc.IdleTimeout, &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("stats-interval", fc.StatsInterval, &cfg.StatsInterval); err != nil {
		return err
	}

	s.setInt("soft-capacity", fc.SoftCapacity, &cfg.SoftCapacity)
	s.setInt("max-pending", fc.MaxPending, &cfg.MaxPending)
	s.setInt("emit-queue", fc.EmitQueueSize, &cfg.EmitQueueSize)

	s.setBool("follow", fc.Follow, &cfg.Follow)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

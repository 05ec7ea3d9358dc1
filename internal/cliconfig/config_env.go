package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (FRAMESYNC_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("primary", os.Getenv("FRAMESYNC_PRIMARY"), &cfg.Primary)
	s.setString("secondary", os.Getenv("FRAMESYNC_SECONDARY"), &cfg.Secondary)
	s.setString("journal", os.Getenv("FRAMESYNC_JOURNAL"), &cfg.Journal)
	s.setString("log-level", os.Getenv("FRAMESYNC_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("tolerance", os.Getenv("FRAMESYNC_TOLERANCE"), &cfg.Tolerance); err != nil {
		return err
	}
	if err := s.setDuration("idle-timeout", os.Getenv("FRAMESYNC_IDLE_TIMEOUT"), &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("stats-interval", os.Getenv("FRAMESYNC_STATS_INTERVAL"), &cfg.StatsInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("soft-capacity", os.Getenv("FRAMESYNC_SOFT_CAPACITY"), &cfg.SoftCapacity); err != nil {
		return err
	}
	if err := s.setIntFromString("max-pending", os.Getenv("FRAMESYNC_MAX_PENDING"), &cfg.MaxPending); err != nil {
		return err
	}
	if err := s.setIntFromString("emit-queue", os.Getenv("FRAMESYNC_EMIT_QUEUE_SIZE"), &cfg.EmitQueueSize); err != nil {
		return err
	}

	s.setBoolFromString("follow", os.Getenv("FRAMESYNC_FOLLOW"), &cfg.Follow)

	return nil
}

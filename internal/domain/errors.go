package domain

import "errors"

// Domain errors represent error conditions in the framesync domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("framesync: already running")

	// ErrNotRunning is returned when frames are ingested into, or Stop() is
	// called on, a synchronizer that is not running.
	ErrNotRunning = errors.New("framesync: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("framesync: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("framesync: invalid configuration")

	// ErrUnknownChannel is returned when a frame is ingested on a channel
	// other than Primary or Secondary.
	ErrUnknownChannel = errors.New("framesync: unknown channel")

	// ErrInvariant is returned when the pending set and timestamp index of a
	// channel disagree. It is not recoverable: the synchronizer refuses all
	// further ingestion until restarted.
	ErrInvariant = errors.New("framesync: pending set and index out of sync")
)

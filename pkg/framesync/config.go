package framesync

import (
	"fmt"
	"time"

	"github.com/bft-labs/framesync/internal/app"
	"github.com/bft-labs/framesync/internal/domain"
)

// DefaultTolerance is the default maximum timestamp difference of a pair.
const DefaultTolerance = 10 * time.Millisecond

// DefaultSoftCapacity is the default pending count per channel above which a
// capacity diagnostic is raised.
const DefaultSoftCapacity = app.DefaultSoftCapacity

// Config holds the configuration of a Synchronizer.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Tolerance is the largest timestamp difference at which a primary and a
	// secondary frame still pair. Must be positive. Default: 10ms
	Tolerance time.Duration

	// SoftCapacity is the pending count per channel above which a warning is
	// logged and OnCapacityExceeded fires. Must be positive. Default: 1000
	SoftCapacity int

	// MaxPending bounds the pending frames per channel; the oldest frames of a
	// channel above the bound are dropped. Zero disables eviction. Default: 0
	MaxPending int

	// EmitQueueSize, when positive, moves sink invocation to a dedicated
	// goroutine fed by a queue of this size. Zero calls the sink inline.
	// Default: 0
	EmitQueueSize int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Tolerance:    DefaultTolerance,
		SoftCapacity: DefaultSoftCapacity,
	}
}

// Validate checks the configuration for errors.
// Zero values are rejected rather than defaulted.
func (c Config) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %s", domain.ErrInvalidConfig, c.Tolerance)
	}
	if c.EmitQueueSize < 0 {
		return fmt.Errorf("%w: emit queue size must not be negative", domain.ErrInvalidConfig)
	}
	return c.gateConfig().Validate()
}

func (c Config) gateConfig() app.GateConfig {
	return app.GateConfig{
		Tolerance:    uint64(c.Tolerance.Nanoseconds()),
		SoftCapacity: c.SoftCapacity,
		MaxPending:   c.MaxPending,
	}
}

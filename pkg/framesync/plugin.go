package framesync

import (
	"context"
	"time"
)

// Plugin extends a Synchronizer with components that share its lifecycle.
type Plugin interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Initialize is called from Start, before frames are accepted.
	// Returning an error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop, after all pairs have been delivered.
	Shutdown(ctx context.Context) error
}

// PairObserver is implemented by plugins that want to see every matched
// pair. OnPair runs right after the sink, on the same goroutine, and must not
// retain or modify payloads.
type PairObserver interface {
	OnPair(pair Pair)
}

// PluginConfig is passed to plugins on initialization.
type PluginConfig struct {
	Tolerance     time.Duration
	SoftCapacity  int
	MaxPending    int
	EmitQueueSize int
	Logger        Logger

	// Stats returns the synchronizer's current counters.
	Stats func() Stats
}

// BasePlugin implements Plugin with no-ops. Embed it and override what you
// need.
type BasePlugin struct {
	PluginName string
}

func (b BasePlugin) Name() string                                  { return b.PluginName }
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }

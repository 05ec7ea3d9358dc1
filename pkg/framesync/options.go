package framesync

import (
	"time"

	"github.com/bft-labs/framesync/internal/app"
	"github.com/bft-labs/framesync/pkg/log"
)

// Option configures optional behavior of a Synchronizer.
type Option func(*options)

// options holds the optional configuration for a Synchronizer instance.
type options struct {
	logger          Logger
	eventHandler    EventHandler
	plugins         []Plugin
	shutdownTimeout time.Duration
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger:          log.NewNoopLogger(),
		shutdownTimeout: app.ShutdownTimeout,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for synchronizer events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the synchronizer
// starts. Plugins are initialized in registration order and shut down in
// reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithShutdownTimeout bounds how long Stop waits for queued pairs to reach
// the sink. Defaults to 30 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

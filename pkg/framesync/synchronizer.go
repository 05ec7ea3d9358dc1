package framesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/framesync/internal/app"
	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/pkg/log"
)

// Synchronizer pairs frames from two streams by timestamp.
// Use New() to create an instance, then Start() to begin accepting frames.
type Synchronizer struct {
	config     Config
	opts       options
	sink       Sink
	lifecycle  *app.Lifecycle
	gate       *app.Gate
	dispatcher atomic.Pointer[app.Dispatcher]
	logger     Logger

	plugins   []Plugin
	observers []PairObserver

	mu sync.Mutex
}

// New creates a Synchronizer that hands matched pairs to sink.
// The instance is created in StateStopped; call Start() to accept frames.
// Returns an error wrapping ErrInvalidConfig if cfg is invalid or sink is nil.
func New(cfg Config, sink Sink, opts ...Option) (*Synchronizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: sink is required", ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	gate, err := app.NewGate(cfg.gateConfig(), o.logger, emitter, emitter)
	if err != nil {
		return nil, err
	}

	var observers []PairObserver
	for _, p := range o.plugins {
		if obs, ok := p.(PairObserver); ok {
			observers = append(observers, obs)
		}
	}

	return &Synchronizer{
		config:    cfg,
		opts:      o,
		sink:      sink,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		gate:      gate,
		logger:    o.logger,
		plugins:   o.plugins,
		observers: observers,
	}, nil
}

// Start initializes plugins and begins accepting frames.
// Returns ErrAlreadyRunning if already running, or the error of the first
// plugin that fails to initialize. The provided context is passed to plugins
// and bounds their background work.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if d := s.dispatcher.Load(); d != nil {
		select {
		case <-d.Done():
		default:
			return fmt.Errorf("%w: emission worker of the previous run is still delivering", domain.ErrAlreadyRunning)
		}
	}

	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		Tolerance:     s.config.Tolerance,
		SoftCapacity:  s.config.SoftCapacity,
		MaxPending:    s.config.MaxPending,
		EmitQueueSize: s.config.EmitQueueSize,
		Logger:        s.logger,
		Stats:         s.Stats,
	}
	for i, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			s.shutdownPlugins(s.plugins[:i])
			s.lifecycle.Cancel()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	if s.config.EmitQueueSize > 0 {
		d := app.NewDispatcher(s.config.EmitQueueSize, s.deliver, s.logger)
		s.dispatcher.Store(d)
		s.lifecycle.Go(d.Run)
		s.gate.Open(d.Enqueue)
	} else {
		s.dispatcher.Store(nil)
		s.gate.Open(s.deliver)
	}

	s.logger.Info("synchronizer started",
		log.Duration("tolerance", s.config.Tolerance),
		log.Int("soft_capacity", s.config.SoftCapacity),
		log.Int("max_pending", s.config.MaxPending),
		log.Int("emit_queue_size", s.config.EmitQueueSize),
	)

	return s.lifecycle.TransitionTo(app.StateRunning, "gate open")
}

// Stop stops accepting frames, drops everything still pending with
// DropShutdown, waits for queued pairs to reach the sink, and shuts down
// plugins in reverse order.
// Returns nil on graceful shutdown, ErrShutdownTimeout if the sink did not
// drain the queue in time, ErrNotRunning if not running.
//
// After ErrShutdownTimeout the synchronizer is in StateCrashed and the
// emission worker keeps delivering the queued pairs to the sink and plugins
// in the background. Start returns ErrAlreadyRunning until it has finished.
func (s *Synchronizer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}

	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		return err
	}

	err := s.teardown()

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Ingest submits a frame on ch. Matching runs before Ingest returns; with the
// inline sink every pair this frame completes has already been emitted.
//
// Returns ErrUnknownChannel for an invalid channel and ErrNotRunning when
// not running. An error wrapping ErrInvariant means the pending state was
// found inconsistent; the synchronizer moves to StateCrashed and must be
// restarted.
func (s *Synchronizer) Ingest(ch Channel, timestamp uint64, payload any) error {
	_, err := s.gate.Ingest(ch, timestamp, payload)
	if err != nil && errors.Is(err, domain.ErrInvariant) {
		s.crash(err)
	}
	return err
}

// IngestPrimary submits a frame on the primary channel.
func (s *Synchronizer) IngestPrimary(timestamp uint64, payload any) error {
	return s.Ingest(Primary, timestamp, payload)
}

// IngestSecondary submits a frame on the secondary channel.
func (s *Synchronizer) IngestSecondary(timestamp uint64, payload any) error {
	return s.Ingest(Secondary, timestamp, payload)
}

// Pending returns the number of frames waiting for a partner on ch.
func (s *Synchronizer) Pending(ch Channel) int {
	return s.gate.Pending(ch)
}

// Stats returns the current counters.
// Safe to call concurrently from any goroutine.
func (s *Synchronizer) Stats() Stats {
	st := s.gate.Snapshot()
	if d := s.dispatcher.Load(); d != nil {
		st.EmitBacklog = d.Backlog()
	}
	return st
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Synchronizer) Status() State {
	return convertState(s.lifecycle.State())
}

// Config returns the configuration the synchronizer was created with.
func (s *Synchronizer) Config() Config {
	return s.config
}

func (s *Synchronizer) deliver(pair Pair) {
	s.sink.Emit(pair)
	for _, o := range s.observers {
		o.OnPair(pair)
	}
}

// crash moves a running synchronizer to StateCrashed after an invariant
// violation and releases everything Start acquired.
func (s *Synchronizer) crash(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle.State() != app.StateRunning {
		return
	}
	if err := s.lifecycle.TransitionTo(app.StateCrashed, cause.Error()); err != nil {
		return
	}
	_ = s.teardown()
}

// teardown closes the gate, waits for the dispatcher and shuts down plugins.
// Must be called with s.mu held.
func (s *Synchronizer) teardown() error {
	dropped := s.gate.Close()
	if d := s.dispatcher.Load(); d != nil {
		d.Close()
	}
	s.lifecycle.Cancel()

	err := s.lifecycle.WaitWithTimeout(s.opts.shutdownTimeout)

	s.shutdownPlugins(s.plugins)

	stats := s.gate.Snapshot()
	s.logger.Info("synchronizer stopped",
		log.Int("dropped_pending", dropped),
		log.Uint64("matched", stats.Matched),
		log.Uint64("dropped_primary", stats.Primary.Dropped()),
		log.Uint64("dropped_secondary", stats.Secondary.Dropped()),
	)
	return err
}

// shutdownPlugins shuts down plugins in reverse order.
func (s *Synchronizer) shutdownPlugins(plugins []Plugin) {
	shutdownCtx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			s.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Package pairjournal records every matched pair to a SQLite database.
// Each synchronizer run is a session identified by a UUID; a lock file next
// to the database keeps a second process from writing to it.
package pairjournal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/bft-labs/framesync/pkg/framesync"
	"github.com/bft-labs/framesync/pkg/log"
)

// ErrLocked is returned by Initialize when another process holds the journal.
var ErrLocked = errors.New("pairjournal: journal is locked by another process")

// Config holds configuration options for the pair journal plugin.
type Config struct {
	// Path is the SQLite database file. Required.
	Path string

	// SessionID names the run. Default: a random UUID per Start.
	SessionID string

	// BatchSize is the number of rows written per transaction.
	// Default: 256
	BatchSize int

	// FlushInterval bounds how long a row waits before being written.
	// Default: 200 milliseconds
	FlushInterval time.Duration

	// QueueSize is the number of rows buffered ahead of the writer. OnPair
	// blocks while the queue is full.
	// Default: 4096
	QueueSize int

	// KeepSessions, when positive, deletes all but this many most recent
	// sessions each time a session starts.
	// Default: 0 (keep everything)
	KeepSessions int
}

// DefaultConfig returns a Config with sensible defaults. Path must still be set.
func DefaultConfig() Config {
	return Config{
		BatchSize:     256,
		FlushInterval: 200 * time.Millisecond,
		QueueSize:     4096,
	}
}

// Plugin journals matched pairs.
type Plugin struct {
	mu sync.RWMutex

	cfg       Config
	sessionID string
	store     *Store
	lock      *flock.Flock
	rows      chan Row
	done      chan struct{}
	logger    log.Logger

	written atomic.Uint64
	failed  atomic.Uint64
}

// New creates a new pair journal plugin with the given configuration.
func New(cfg Config) *Plugin {
	defaults := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	return &Plugin{cfg: cfg, logger: log.NewNoopLogger()}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "pairjournal"
}

// SessionID returns the id of the current or last session.
func (p *Plugin) SessionID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sessionID
}

// Written returns the number of rows committed in the current session.
func (p *Plugin) Written() uint64 {
	return p.written.Load()
}

// Initialize takes the journal lock, opens the database and starts a session.
func (p *Plugin) Initialize(ctx context.Context, cfg framesync.PluginConfig) error {
	if p.cfg.Path == "" {
		return fmt.Errorf("pairjournal: path is required")
	}

	lock := flock.New(p.cfg.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("pairjournal: acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, p.cfg.Path)
	}

	store, err := OpenStore(p.cfg.Path)
	if err != nil {
		_ = lock.Unlock()
		return fmt.Errorf("pairjournal: %w", err)
	}

	sessionID := p.cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := store.BeginSession(ctx, sessionID, cfg.Tolerance, time.Now()); err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return fmt.Errorf("pairjournal: begin session: %w", err)
	}

	logger := p.logger
	if cfg.Logger != nil {
		logger = cfg.Logger
	}
	if p.cfg.KeepSessions > 0 {
		removed, err := store.PruneSessions(ctx, p.cfg.KeepSessions)
		if err != nil {
			logger.Warn("pair journal pruning failed", log.Err(err))
		} else if removed > 0 {
			logger.Info("pair journal pruned", log.Int("sessions_removed", int(removed)))
		}
	}

	p.mu.Lock()
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	p.sessionID = sessionID
	p.store = store
	p.lock = lock
	p.rows = make(chan Row, p.cfg.QueueSize)
	p.done = make(chan struct{})
	p.written.Store(0)
	p.failed.Store(0)
	rows, done := p.rows, p.done
	p.mu.Unlock()

	go p.run(store, sessionID, rows, done)

	p.logger.Info("pair journal opened",
		log.String("path", p.cfg.Path),
		log.String("session", sessionID),
	)
	return nil
}

// OnPair queues the pair for writing.
func (p *Plugin) OnPair(pair framesync.Pair) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.rows == nil {
		return
	}
	p.rows <- Row{
		PrimaryID:   pair.Primary.ID,
		PrimaryTS:   pair.Primary.Timestamp,
		SecondaryID: pair.Secondary.ID,
		SecondaryTS: pair.Secondary.Timestamp,
		DeltaNs:     pair.Delta(),
		RecordedAt:  time.Now(),
	}
}

// Shutdown writes queued rows, ends the session and releases the lock.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	rows, done, store, lock, sessionID := p.rows, p.done, p.store, p.lock, p.sessionID
	p.rows = nil
	p.store = nil
	p.lock = nil
	p.mu.Unlock()

	if rows == nil {
		return nil
	}

	close(rows)
	<-done

	var errs []error
	if err := store.EndSession(ctx, sessionID, time.Now()); err != nil {
		errs = append(errs, fmt.Errorf("end session: %w", err))
	}
	if err := store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if err := lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}

	p.logger.Info("pair journal closed",
		log.String("session", sessionID),
		log.Uint64("written", p.written.Load()),
		log.Uint64("failed", p.failed.Load()),
	)
	return errors.Join(errs...)
}

// run batches rows into transactions until rows is closed.
func (p *Plugin) run(store *Store, sessionID string, rows <-chan Row, done chan<- struct{}) {
	defer close(done)

	ctx := context.Background()
	batch := make([]Row, 0, p.cfg.BatchSize)
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := store.InsertPairs(ctx, sessionID, batch); err != nil {
			p.failed.Add(uint64(len(batch)))
			p.logger.Error("pair journal write failed",
				log.Int("rows", len(batch)),
				log.Err(err),
			)
		} else {
			p.written.Add(uint64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case row, ok := <-rows:
			if !ok {
				flush()
				return
			}
			batch = append(batch, row)
			if len(batch) >= p.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/internal/resolver"
	"github.com/bft-labs/framesync/internal/store"
	"github.com/bft-labs/framesync/pkg/log"
)

// GateConfig contains the matching parameters of a gate.
type GateConfig struct {
	// Tolerance is the largest timestamp difference, in nanoseconds, at which
	// two frames still pair. Must be positive.
	Tolerance uint64

	// SoftCapacity is the pending count per channel above which the capacity
	// monitor reports. Must be positive.
	SoftCapacity int

	// MaxPending bounds each channel's pending frames. When a channel goes
	// above it, its oldest frames are dropped with DropOverflow.
	// Zero means unbounded.
	MaxPending int
}

// Validate checks the configuration for errors.
func (c GateConfig) Validate() error {
	if c.Tolerance == 0 {
		return fmt.Errorf("%w: tolerance must be positive", domain.ErrInvalidConfig)
	}
	if c.SoftCapacity <= 0 {
		return fmt.Errorf("%w: soft capacity must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxPending < 0 {
		return fmt.Errorf("%w: max pending must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// DropEmitter is notified for every frame the gate drops.
type DropEmitter interface {
	OnDrop(frame domain.Frame, reason domain.DropReason)
}

// Gate is the concurrency boundary of the synchronizer. Producers call Ingest
// from any goroutine; a single mutex covers the id sequence, both partitions,
// and the whole insert-then-drain cycle, so matching decisions form one
// serial history.
type Gate struct {
	mu     sync.Mutex
	cfg    GateConfig
	seq    uint64
	parts  [domain.NumChannels]*store.Partition
	open   bool
	fault  error
	emit   func(domain.Pair)
	outlet gateOutlet

	// watermark is the Earliest of the last emitted pair. Every pending
	// frame is at or above it, so dropping arrivals below it on ingest keeps
	// emitted pairs in non-decreasing order.
	watermark uint64
	marked    bool

	monitor *CapacityMonitor
	drops   DropEmitter
	logger  log.Logger
	stats   *Stats
}

// NewGate creates a closed gate. Call Open before ingesting.
func NewGate(cfg GateConfig, logger log.Logger, capacity CapacityEmitter, drops DropEmitter) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	stats := &Stats{}
	g := &Gate{
		cfg:     cfg,
		monitor: NewCapacityMonitor(cfg.SoftCapacity, logger, capacity, stats),
		drops:   drops,
		logger:  logger,
		stats:   stats,
	}
	g.outlet = gateOutlet{g: g}
	g.resetLocked()
	return g, nil
}

// Open starts accepting frames. Matched pairs are passed to emit while the
// gate's lock is held, in match order.
func (g *Gate) Open(emit func(domain.Pair)) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resetLocked()
	g.emit = emit
	g.open = true
}

// Ingest assigns the next frame id, stores the frame on its channel, and
// runs the resolver before returning. Returns the assigned id.
//
// Errors: ErrUnknownChannel for an invalid channel, ErrNotRunning when the
// gate is closed, ErrInvariant once the pending state has been found
// inconsistent.
func (g *Gate) Ingest(ch domain.Channel, timestamp uint64, payload any) (uint64, error) {
	if !ch.Valid() {
		return 0, fmt.Errorf("%w: %d", domain.ErrUnknownChannel, int(ch))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fault != nil {
		return 0, g.fault
	}
	if !g.open {
		return 0, domain.ErrNotRunning
	}

	g.seq++
	f := domain.Frame{ID: g.seq, Channel: ch, Timestamp: timestamp, Payload: payload}
	g.stats.ingested[ch].Add(1)

	if g.marked && timestamp < g.watermark {
		g.dropLocked(f, domain.DropLate)
		return f.ID, nil
	}

	if err := g.parts[ch].Insert(f); err != nil {
		return f.ID, g.failLocked(err)
	}
	if _, err := g.drainLocked(); err != nil {
		return f.ID, g.failLocked(err)
	}
	if err := g.evictLocked(ch); err != nil {
		return f.ID, g.failLocked(err)
	}
	if !g.parts[ch].Consistent() {
		return f.ID, g.failLocked(fmt.Errorf("%w: %s set and index sizes differ", domain.ErrInvariant, ch))
	}

	g.monitor.Observe(domain.Primary, g.parts[domain.Primary].Len())
	g.monitor.Observe(domain.Secondary, g.parts[domain.Secondary].Len())
	return f.ID, nil
}

// Drain runs the resolver without ingesting anything. With no ingestion
// since the last call it has no effect.
func (g *Gate) Drain() (resolver.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fault != nil {
		return resolver.Result{}, g.fault
	}
	res, err := g.drainLocked()
	if err != nil {
		return res, g.failLocked(err)
	}
	return res, nil
}

// Close stops accepting frames and drops every pending frame with
// DropShutdown. Returns the number of frames dropped.
func (g *Gate) Close() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.open {
		return 0
	}
	g.open = false

	dropped := 0
	if g.fault == nil {
		for _, p := range g.parts {
			frames, err := p.Clear()
			for _, f := range frames {
				g.dropLocked(f, domain.DropShutdown)
			}
			dropped += len(frames)
			if err != nil {
				g.logger.Error("pending state inconsistent during shutdown", log.Err(err))
			}
		}
	}
	g.emit = nil
	return dropped
}

// Pending returns the number of frames waiting on ch.
func (g *Gate) Pending(ch domain.Channel) int {
	if !ch.Valid() {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.parts[ch].Len()
}

// Err returns the invariant violation that halted the gate, if any.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fault
}

// Snapshot returns the current counters and pending sizes.
func (g *Gate) Snapshot() StatsSnapshot {
	g.mu.Lock()
	pp := g.parts[domain.Primary].Len()
	sp := g.parts[domain.Secondary].Len()
	g.mu.Unlock()

	return StatsSnapshot{
		Primary:   g.stats.channel(domain.Primary, pp),
		Secondary: g.stats.channel(domain.Secondary, sp),
		Matched:   g.stats.matched.Load(),
	}
}

func (g *Gate) drainLocked() (resolver.Result, error) {
	return resolver.Drain(g.parts[domain.Primary], g.parts[domain.Secondary], g.cfg.Tolerance, g.outlet)
}

// evictLocked drops the oldest frames of ch until it is within MaxPending.
func (g *Gate) evictLocked(ch domain.Channel) error {
	if g.cfg.MaxPending == 0 {
		return nil
	}
	p := g.parts[ch]
	for p.Len() > g.cfg.MaxPending {
		f, ok, err := p.PopMin()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		g.dropLocked(f, domain.DropOverflow)
	}
	return nil
}

func (g *Gate) dropLocked(f domain.Frame, reason domain.DropReason) {
	g.stats.recordDrop(f.Channel, reason)
	g.logger.Debug("frame dropped",
		log.Stringer("channel", f.Channel),
		log.Uint64("id", f.ID),
		log.Uint64("ts", f.Timestamp),
		log.Stringer("reason", reason),
	)
	if g.drops != nil {
		g.drops.OnDrop(f, reason)
	}
}

func (g *Gate) advanceLocked(ts uint64) {
	if !g.marked || ts > g.watermark {
		g.watermark = ts
		g.marked = true
	}
}

func (g *Gate) failLocked(err error) error {
	g.fault = fmt.Errorf("synchronizer halted: %w", err)
	g.logger.Error("pending set and index diverged", log.Err(err))
	return g.fault
}

func (g *Gate) resetLocked() {
	for i := range g.parts {
		g.parts[i] = store.NewPartition(domain.Channel(i))
	}
	g.watermark = 0
	g.marked = false
	g.fault = nil
	g.monitor.Reset()
}

// gateOutlet receives resolver decisions on behalf of the gate. It is only
// invoked with the gate's lock held.
type gateOutlet struct {
	g *Gate
}

func (o gateOutlet) Emit(pair domain.Pair) {
	g := o.g
	g.advanceLocked(pair.Earliest())
	g.stats.matched.Add(1)
	if g.emit != nil {
		g.emit(pair)
	}
}

func (o gateOutlet) Drop(f domain.Frame, reason domain.DropReason) {
	o.g.dropLocked(f, reason)
}

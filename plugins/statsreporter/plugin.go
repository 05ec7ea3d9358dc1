// Package statsreporter periodically logs synchronizer counters and rates.
package statsreporter

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/framesync/pkg/framesync"
	"github.com/bft-labs/framesync/pkg/log"
)

// Config holds configuration options for the stats reporter plugin.
type Config struct {
	// Interval between reports.
	// Default: 10 seconds
	Interval time.Duration

	// Report, if set, receives every sample in addition to the log line.
	Report func(Sample)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 10 * time.Second}
}

// Sample is one report.
type Sample struct {
	Stats framesync.Stats

	// Elapsed is the time covered by the rates.
	Elapsed time.Duration

	// MatchRate is pairs per second over Elapsed.
	MatchRate float64

	// DropRate is dropped frames per second, both channels, over Elapsed.
	DropRate float64
}

// Plugin reports stats on an interval.
type Plugin struct {
	mu       sync.Mutex
	interval time.Duration
	report   func(Sample)
	stats    func() framesync.Stats
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a new stats reporter plugin.
func New(cfg Config) *Plugin {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Plugin{
		interval: cfg.Interval,
		report:   cfg.Report,
		logger:   log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "statsreporter"
}

// Initialize starts the reporting loop.
func (p *Plugin) Initialize(ctx context.Context, cfg framesync.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	p.stats = cfg.Stats
	if p.stats == nil {
		p.logger.Warn("stats reporter disabled: no stats source")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(runCtx)
	}()
	return nil
}

// Shutdown stops the loop and emits a final report.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	p.wg.Wait()
	return nil
}

func (p *Plugin) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := p.stats()
	lastAt := time.Now()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			cur := p.stats()
			p.emit(sample(last, cur, now.Sub(lastAt)))
			last, lastAt = cur, now
		case <-ctx.Done():
			cur := p.stats()
			p.emit(sample(last, cur, time.Since(lastAt)))
			return
		}
	}
}

func (p *Plugin) emit(s Sample) {
	st := s.Stats
	p.logger.Info("synchronizer stats",
		log.Uint64("matched", st.Matched),
		log.Float64("match_rate_per_s", s.MatchRate),
		log.Float64("drop_rate_per_s", s.DropRate),
		log.Int("pending_primary", st.Primary.Pending),
		log.Int("pending_secondary", st.Secondary.Pending),
		log.Int("emit_backlog", st.EmitBacklog),
		log.Uint64("dropped_primary", st.Primary.Dropped()),
		log.Uint64("dropped_secondary", st.Secondary.Dropped()),
		log.Duration("interval", s.Elapsed),
	)
	if p.report != nil {
		p.report(s)
	}
}

func sample(prev, cur framesync.Stats, elapsed time.Duration) Sample {
	s := Sample{Stats: cur, Elapsed: elapsed}
	secs := elapsed.Seconds()
	if secs <= 0 {
		return s
	}
	dropped := cur.Primary.Dropped() + cur.Secondary.Dropped()
	prevDropped := prev.Primary.Dropped() + prev.Secondary.Dropped()
	s.MatchRate = float64(cur.Matched-prev.Matched) / secs
	s.DropRate = float64(dropped-prevDropped) / secs
	return s
}

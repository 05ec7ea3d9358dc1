package app

import (
	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/pkg/log"
)

// DefaultSoftCapacity is the pending count per channel above which the
// capacity monitor raises a diagnostic.
const DefaultSoftCapacity = 1000

// CapacityEmitter is notified when a channel's pending count crosses the
// soft threshold.
type CapacityEmitter interface {
	OnCapacityExceeded(ch domain.Channel, pending, threshold int)
}

// CapacityMonitor watches pending counts and reports when a channel falls
// behind. It never changes matching behavior.
//
// The signal is edge-triggered: it fires once when a channel goes above the
// threshold and re-arms after the channel drops back to or below it.
type CapacityMonitor struct {
	threshold int
	breached  [domain.NumChannels]bool
	logger    log.Logger
	emitter   CapacityEmitter
	stats     *Stats
}

// NewCapacityMonitor creates a monitor with the given soft threshold.
func NewCapacityMonitor(threshold int, logger log.Logger, emitter CapacityEmitter, stats *Stats) *CapacityMonitor {
	return &CapacityMonitor{
		threshold: threshold,
		logger:    logger,
		emitter:   emitter,
		stats:     stats,
	}
}

// Observe records the current pending count of ch.
// Returns true if this observation raised the diagnostic.
func (m *CapacityMonitor) Observe(ch domain.Channel, pending int) bool {
	if pending <= m.threshold {
		m.breached[ch] = false
		return false
	}
	if m.breached[ch] {
		return false
	}
	m.breached[ch] = true

	if m.stats != nil {
		m.stats.capacityBreaches[ch].Add(1)
	}
	m.logger.Warn("pending frames above soft capacity; partner channel stalled or resolver falling behind",
		log.Stringer("channel", ch),
		log.Int("pending", pending),
		log.Int("threshold", m.threshold),
	)
	if m.emitter != nil {
		m.emitter.OnCapacityExceeded(ch, pending, m.threshold)
	}
	return true
}

// Reset re-arms the monitor for all channels.
func (m *CapacityMonitor) Reset() {
	m.breached = [domain.NumChannels]bool{}
}

package app

import (
	"sync/atomic"

	"github.com/bft-labs/framesync/internal/domain"
)

// Stats holds the synchronizer counters. Counters are updated inside the
// gate's critical section and read without it.
type Stats struct {
	ingested         [domain.NumChannels]atomic.Uint64
	dropped          [domain.NumChannels][domain.NumDropReasons]atomic.Uint64
	capacityBreaches [domain.NumChannels]atomic.Uint64
	matched          atomic.Uint64
}

// ChannelStats is a point-in-time view of one channel.
type ChannelStats struct {
	Ingested         uint64
	Pending          int
	DroppedStale     uint64
	DroppedLate      uint64
	DroppedOverflow  uint64
	DroppedShutdown  uint64
	CapacityBreaches uint64
}

// Dropped returns the total number of frames dropped for any reason.
func (c ChannelStats) Dropped() uint64 {
	return c.DroppedStale + c.DroppedLate + c.DroppedOverflow + c.DroppedShutdown
}

// StatsSnapshot is a point-in-time view of the synchronizer.
type StatsSnapshot struct {
	Primary   ChannelStats
	Secondary ChannelStats
	Matched   uint64

	// EmitBacklog is the number of matched pairs queued for the sink.
	// Always zero with inline emission.
	EmitBacklog int
}

// Channel returns the stats for ch.
func (s StatsSnapshot) Channel(ch domain.Channel) ChannelStats {
	if ch == domain.Secondary {
		return s.Secondary
	}
	return s.Primary
}

func (s *Stats) recordDrop(ch domain.Channel, reason domain.DropReason) {
	s.dropped[ch][reason].Add(1)
}

func (s *Stats) channel(ch domain.Channel, pending int) ChannelStats {
	return ChannelStats{
		Ingested:         s.ingested[ch].Load(),
		Pending:          pending,
		DroppedStale:     s.dropped[ch][domain.DropStale].Load(),
		DroppedLate:      s.dropped[ch][domain.DropLate].Load(),
		DroppedOverflow:  s.dropped[ch][domain.DropOverflow].Load(),
		DroppedShutdown:  s.dropped[ch][domain.DropShutdown].Load(),
		CapacityBreaches: s.capacityBreaches[ch].Load(),
	}
}

package framesync

import (
	"github.com/bft-labs/framesync/internal/app"
	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/internal/ports"
	"github.com/bft-labs/framesync/pkg/log"
)

// Re-export domain types so callers never import internal packages.
type (
	// Channel identifies one of the two synchronized streams.
	Channel = domain.Channel

	// Frame is a timestamped payload owned by the synchronizer until it is
	// emitted or dropped.
	Frame = domain.Frame

	// Pair is a primary and a secondary frame within tolerance.
	Pair = domain.Pair

	// DropReason describes why a frame left without a partner.
	DropReason = domain.DropReason

	// Sink receives matched pairs. It must not block unboundedly and must not
	// call back into the synchronizer.
	Sink = ports.PairSink

	// SinkFunc adapts a function to Sink.
	SinkFunc = ports.PairSinkFunc

	// Stats is a point-in-time view of the synchronizer counters.
	Stats = app.StatsSnapshot

	// ChannelStats is the per-channel part of Stats.
	ChannelStats = app.ChannelStats

	// Logger is the interface for structured logging.
	Logger = log.Logger

	// LogField represents a structured log field.
	LogField = log.Field
)

// Channels.
const (
	Primary   = domain.Primary
	Secondary = domain.Secondary
)

// Drop reasons.
const (
	DropStale    = domain.DropStale
	DropLate     = domain.DropLate
	DropOverflow = domain.DropOverflow
	DropShutdown = domain.DropShutdown
)

// Errors returned by the synchronizer. Check with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrUnknownChannel  = domain.ErrUnknownChannel
	ErrInvariant       = domain.ErrInvariant
)

// StampToNanos converts a (seconds, nanoseconds) message stamp to the
// nanosecond timestamps Ingest expects.
func StampToNanos(sec, nsec uint32) uint64 {
	return domain.StampToNanos(sec, nsec)
}

package domain

import "fmt"

// Channel identifies one of the two frame streams being synchronized.
type Channel int

const (
	// Primary is the reference stream (e.g. color images).
	Primary Channel = iota
	// Secondary is the stream paired against Primary (e.g. depth images).
	Secondary
)

// NumChannels is the number of channels a synchronizer pairs.
const NumChannels = 2

// String returns the lower-case channel name.
func (c Channel) String() string {
	switch c {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Valid reports whether c is Primary or Secondary.
func (c Channel) Valid() bool {
	return c == Primary || c == Secondary
}

// Other returns the partner channel.
func (c Channel) Other() Channel {
	if c == Primary {
		return Secondary
	}
	return Primary
}

// Frame is a single timestamped unit ingested on a channel.
// The synchronizer owns a Frame from ingestion until it is emitted in a
// Pair or dropped.
type Frame struct {
	// ID is assigned on ingestion; unique for the lifetime of a synchronizer.
	// It has no ordering meaning.
	ID uint64

	// Channel is the stream the frame arrived on.
	Channel Channel

	// Timestamp is the capture time in nanoseconds.
	Timestamp uint64

	// Payload is the opaque frame content.
	Payload any
}

// Pair is a primary and a secondary frame whose timestamps lie within the
// configured tolerance. A Pair only exists for the duration of an emission.
type Pair struct {
	Primary   Frame
	Secondary Frame
}

// Delta returns the absolute timestamp difference in nanoseconds.
func (p Pair) Delta() uint64 {
	return AbsDiff(p.Primary.Timestamp, p.Secondary.Timestamp)
}

// Earliest returns the smaller of the two timestamps.
func (p Pair) Earliest() uint64 {
	if p.Primary.Timestamp < p.Secondary.Timestamp {
		return p.Primary.Timestamp
	}
	return p.Secondary.Timestamp
}

// AbsDiff returns |a - b| without overflowing.
func AbsDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// StampToNanos converts a (seconds, nanoseconds) header stamp to nanoseconds.
func StampToNanos(sec uint32, nsec uint32) uint64 {
	return uint64(sec)*1_000_000_000 + uint64(nsec)
}

// DropReason describes why a frame was discarded without a partner.
type DropReason int

const (
	// DropStale means the frame was older than its partner channel's earliest
	// pending frame by more than the tolerance.
	DropStale DropReason = iota
	// DropLate means the frame arrived with a timestamp older than the
	// earliest frame of the last emitted pair.
	DropLate
	// DropOverflow means the frame was evicted because its channel exceeded
	// the pending limit.
	DropOverflow
	// DropShutdown means the frame was still pending when the synchronizer
	// stopped.
	DropShutdown
)

// NumDropReasons is the number of DropReason values.
const NumDropReasons = 4

// String returns a human-readable representation of the reason.
func (r DropReason) String() string {
	switch r {
	case DropStale:
		return "stale"
	case DropLate:
		return "late"
	case DropOverflow:
		return "overflow"
	case DropShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

package ports

import (
	"context"
	"io"

	"github.com/bft-labs/framesync/internal/domain"
)

// SourceRecord is one frame read from a FrameSource.
type SourceRecord struct {
	// Timestamp is the capture time in nanoseconds.
	Timestamp uint64

	// Payload is the opaque frame content handed to the synchronizer.
	Payload any
}

// FrameSource yields the frames of one channel in arrival order.
type FrameSource interface {
	// Next returns the next record.
	// Returns io.EOF when the source is exhausted.
	// Returns ctx.Err() if the context is canceled while waiting.
	Next(ctx context.Context) (SourceRecord, error)

	// Close releases all resources held by the source.
	Close() error
}

// ErrSourceExhausted indicates that the source has no more frames.
var ErrSourceExhausted = io.EOF

// Ingestor accepts frames on a channel.
type Ingestor interface {
	Ingest(ch domain.Channel, timestamp uint64, payload any) error
}

package ports

import "github.com/bft-labs/framesync/internal/domain"

// PairSink receives matched pairs in match order.
// Emit is called from whichever goroutine produced the match (or from the
// single dispatcher goroutine when emission is queued) and must not block
// unboundedly. The sink takes ownership of both payloads.
type PairSink interface {
	Emit(pair domain.Pair)
}

// PairSinkFunc adapts a function to PairSink.
type PairSinkFunc func(pair domain.Pair)

// Emit calls f(pair).
func (f PairSinkFunc) Emit(pair domain.Pair) {
	f(pair)
}

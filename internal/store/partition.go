package store

import (
	"fmt"

	"github.com/bft-labs/framesync/internal/domain"
)

// Partition is the pending state of one channel: a Set and an Index that
// always agree on membership.
type Partition struct {
	channel domain.Channel
	set     *Set
	index   Index
}

// NewPartition creates an empty partition for ch.
func NewPartition(ch domain.Channel) *Partition {
	return &Partition{
		channel: ch,
		set:     NewSet(),
	}
}

// Channel returns the channel this partition holds frames for.
func (p *Partition) Channel() domain.Channel {
	return p.channel
}

// Insert adds a frame to both the set and the index.
func (p *Partition) Insert(f domain.Frame) error {
	if f.Channel != p.channel {
		return fmt.Errorf("%w: %s frame %d inserted into %s partition",
			domain.ErrInvariant, f.Channel, f.ID, p.channel)
	}
	if err := p.set.Insert(f); err != nil {
		return err
	}
	p.index.Push(Entry{Timestamp: f.Timestamp, ID: f.ID})
	return nil
}

// PeekMin returns the earliest pending entry without removing it.
func (p *Partition) PeekMin() (Entry, bool) {
	return p.index.Peek()
}

// PopMin removes the earliest frame from the index and the set in one step
// and hands ownership of it to the caller.
// Returns ErrInvariant if the index referenced an id the set does not hold.
func (p *Partition) PopMin() (domain.Frame, bool, error) {
	e, ok := p.index.Pop()
	if !ok {
		return domain.Frame{}, false, nil
	}
	f, err := p.set.Remove(e.ID)
	if err != nil {
		return domain.Frame{}, false, fmt.Errorf("%s: %w", p.channel, err)
	}
	return f, true, nil
}

// Len returns the number of pending frames.
func (p *Partition) Len() int {
	return p.set.Len()
}

// Consistent reports whether the set and the index have the same size.
func (p *Partition) Consistent() bool {
	return p.set.Len() == p.index.Len()
}

// Clear removes every pending frame and returns them in timestamp order.
func (p *Partition) Clear() ([]domain.Frame, error) {
	out := make([]domain.Frame, 0, p.Len())
	for {
		f, ok, err := p.PopMin()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, f)
	}
}

package store

import (
	"fmt"

	"github.com/bft-labs/framesync/internal/domain"
)

// Set maps frame ids to the frames still waiting for a partner.
type Set struct {
	frames map[uint64]domain.Frame
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{frames: make(map[uint64]domain.Frame)}
}

// Insert stores a frame under its id.
// Returns ErrInvariant if the id is already present.
func (s *Set) Insert(f domain.Frame) error {
	if _, ok := s.frames[f.ID]; ok {
		return fmt.Errorf("%w: duplicate frame id %d", domain.ErrInvariant, f.ID)
	}
	s.frames[f.ID] = f
	return nil
}

// Remove takes a frame out of the set and returns it. After Remove returns,
// the set no longer references the payload.
// Returns ErrInvariant if the id is absent.
func (s *Set) Remove(id uint64) (domain.Frame, error) {
	f, ok := s.frames[id]
	if !ok {
		return domain.Frame{}, fmt.Errorf("%w: frame id %d not pending", domain.ErrInvariant, id)
	}
	delete(s.frames, id)
	return f, nil
}

// Contains reports whether id is pending.
func (s *Set) Contains(id uint64) bool {
	_, ok := s.frames[id]
	return ok
}

// Len returns the number of pending frames.
func (s *Set) Len() int {
	return len(s.frames)
}

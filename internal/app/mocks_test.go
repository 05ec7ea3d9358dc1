package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/pkg/log"
)

// mockLogger implements log.Logger for testing.
type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (*mockLogger) Debug(msg string, fields ...log.Field) {}
func (*mockLogger) Info(msg string, fields ...log.Field)  {}
func (*mockLogger) Error(msg string, fields ...log.Field) {}

func (m *mockLogger) Warn(msg string, fields ...log.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, fmt.Sprintf("%s %v", msg, fields))
}

func (m *mockLogger) Warns() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.warns...)
}

// pairRecorder collects emitted pairs.
type pairRecorder struct {
	mu    sync.Mutex
	pairs []domain.Pair
}

func (r *pairRecorder) emit(p domain.Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, p)
}

func (r *pairRecorder) Pairs() []domain.Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Pair{}, r.pairs...)
}

type dropEvent struct {
	frame  domain.Frame
	reason domain.DropReason
}

// dropRecorder implements DropEmitter.
type dropRecorder struct {
	mu    sync.Mutex
	drops []dropEvent
}

func (r *dropRecorder) OnDrop(f domain.Frame, reason domain.DropReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drops = append(r.drops, dropEvent{f, reason})
}

func (r *dropRecorder) Drops() []dropEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dropEvent{}, r.drops...)
}

type capacityEvent struct {
	ch        domain.Channel
	pending   int
	threshold int
}

// capacityRecorder implements CapacityEmitter.
type capacityRecorder struct {
	mu     sync.Mutex
	events []capacityEvent
}

func (r *capacityRecorder) OnCapacityExceeded(ch domain.Channel, pending, threshold int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, capacityEvent{ch, pending, threshold})
}

func (r *capacityRecorder) Events() []capacityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capacityEvent{}, r.events...)
}

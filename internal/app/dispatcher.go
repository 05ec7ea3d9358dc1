package app

import (
	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/pkg/log"
)

// Dispatcher moves sink invocation out of the gate's critical section.
// The gate enqueues pairs in match order; a single worker delivers them in
// the same order.
type Dispatcher struct {
	queue   chan domain.Pair
	done    chan struct{}
	deliver func(domain.Pair)
	logger  log.Logger
}

// NewDispatcher creates a dispatcher with a queue of the given size.
// Enqueue blocks while the queue is full.
func NewDispatcher(size int, deliver func(domain.Pair), logger log.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   make(chan domain.Pair, size),
		done:    make(chan struct{}),
		deliver: deliver,
		logger:  logger,
	}
}

// Enqueue hands a pair to the worker. Must not be called after Close.
func (d *Dispatcher) Enqueue(pair domain.Pair) {
	d.queue <- pair
}

// Run delivers queued pairs until Close is called and the queue is empty.
func (d *Dispatcher) Run() {
	defer close(d.done)
	delivered := 0
	for pair := range d.queue {
		d.deliver(pair)
		delivered++
	}
	d.logger.Debug("dispatcher drained", log.Int("delivered", delivered))
}

// Close signals that no more pairs will be enqueued.
func (d *Dispatcher) Close() {
	close(d.queue)
}

// Done is closed once Run has delivered the last queued pair and returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Backlog returns the number of pairs waiting for delivery.
func (d *Dispatcher) Backlog() int {
	return len(d.queue)
}

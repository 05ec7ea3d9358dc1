package framesync

import "github.com/bft-labs/framesync/internal/app"

// State represents the lifecycle state of a Synchronizer.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is delivered when the lifecycle state changes.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// CapacityEvent is delivered when a channel's pending count goes above the
// soft capacity.
type CapacityEvent struct {
	Channel   Channel
	Pending   int
	Threshold int
}

// DropEvent is delivered for every frame dropped without a partner.
type DropEvent struct {
	Frame  Frame
	Reason DropReason
}

// EventHandler receives synchronizer notifications.
// OnCapacityExceeded and OnDrop are called with the synchronizer's lock held
// and must return quickly without calling back into the synchronizer.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnCapacityExceeded(event CapacityEvent)
	OnDrop(event DropEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnCapacityExceeded(CapacityEvent) {}
func (BaseEventHandler) OnDrop(DropEvent)                 {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnCapacityExceeded(ch Channel, pending, threshold int) {
	if e.handler == nil {
		return
	}
	e.handler.OnCapacityExceeded(CapacityEvent{
		Channel:   ch,
		Pending:   pending,
		Threshold: threshold,
	})
}

func (e *eventEmitterWrapper) OnDrop(f Frame, reason DropReason) {
	if e.handler == nil {
		return
	}
	e.handler.OnDrop(DropEvent{Frame: f, Reason: reason})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

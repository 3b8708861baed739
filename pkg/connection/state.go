package connection

import (
	"errors"
	"fmt"
	"sync"
)

// Connection errors.
var (
	ErrInvalidTransition = errors.New("invalid connection state transition")
	ErrConnectTimeout    = errors.New("connection timeout")
	ErrNotConnected      = errors.New("not connected")
)

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateReconnecting indicates automatic reconnection is scheduled.
	StateReconnecting

	// StateFailed indicates a terminal failure. Automatic reconnection
	// has given up; only an explicit connect leaves this state.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Event is a connection lifecycle event driving the state machine.
type Event uint8

const (
	// EventConnect is an explicit connect request from the caller.
	EventConnect Event = iota

	// EventOpened signals the transport channel is up.
	EventOpened

	// EventOpenFailed signals a connection attempt failed.
	EventOpenFailed

	// EventClosed signals the transport channel closed or the
	// heartbeat watchdog declared the connection stale.
	EventClosed

	// EventRetryScheduled signals a reconnection attempt was scheduled.
	EventRetryScheduled

	// EventRetryFired signals a scheduled reconnection attempt started.
	EventRetryFired

	// EventDisconnect is an explicit disconnect request. Always legal
	// and idempotent.
	EventDisconnect

	// EventAuthFailed signals a terminal authentication failure on an
	// established connection, e.g. the attempt window elapsed.
	EventAuthFailed
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventConnect:
		return "CONNECT"
	case EventOpened:
		return "OPENED"
	case EventOpenFailed:
		return "OPEN_FAILED"
	case EventClosed:
		return "CLOSED"
	case EventRetryScheduled:
		return "RETRY_SCHEDULED"
	case EventRetryFired:
		return "RETRY_FIRED"
	case EventDisconnect:
		return "DISCONNECT"
	case EventAuthFailed:
		return "AUTH_FAILED"
	default:
		return "UNKNOWN"
	}
}

// StateMachine is the single source of truth for the connection state.
// All components read and mutate the state through Transition only.
type StateMachine struct {
	mu    sync.Mutex
	state State

	onChange func(oldState, newState State, reason string)
}

// NewStateMachine creates a state machine in StateDisconnected.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateDisconnected}
}

// State returns the current connection state.
func (sm *StateMachine) State() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// Is returns true if the current state equals s.
func (sm *StateMachine) Is(s State) bool {
	return sm.State() == s
}

// OnChange sets a callback invoked after every effective transition.
// The callback runs outside the state lock and must not call Transition
// recursively for the same event.
func (sm *StateMachine) OnChange(fn func(oldState, newState State, reason string)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onChange = fn
}

// Transition applies an event to the state machine.
//
// Returns the old and new state. Illegal events return
// ErrInvalidTransition and leave the state untouched. Two events are
// deliberately tolerant instead of erroring:
//
//   - EventOpened while already CONNECTED is a no-op (the caller should
//     log a warning); duplicate open notifications from the transport
//     must not poison the machine.
//   - EventDisconnect is legal from every state and is a no-op when
//     already DISCONNECTED, so explicit disconnects are idempotent.
func (sm *StateMachine) Transition(event Event, reason string) (State, State, error) {
	sm.mu.Lock()

	old := sm.state
	next, err := nextState(old, event)
	if err != nil {
		sm.mu.Unlock()
		return old, old, fmt.Errorf("%w: %s on %s", err, event, old)
	}

	sm.state = next
	onChange := sm.onChange
	sm.mu.Unlock()

	if next != old && onChange != nil {
		onChange(old, next, reason)
	}
	return old, next, nil
}

// nextState is the transition table.
func nextState(current State, event Event) (State, error) {
	switch event {
	case EventConnect:
		// An explicit connect also recovers from terminal failure.
		switch current {
		case StateDisconnected, StateFailed:
			return StateConnecting, nil
		}

	case EventOpened:
		switch current {
		case StateConnecting:
			return StateConnected, nil
		case StateConnected:
			// Duplicate open notification: no-op.
			return StateConnected, nil
		}

	case EventOpenFailed:
		if current == StateConnecting {
			return StateFailed, nil
		}

	case EventClosed:
		if current == StateConnected {
			return StateDisconnected, nil
		}

	case EventRetryScheduled:
		switch current {
		case StateDisconnected, StateFailed:
			return StateReconnecting, nil
		}

	case EventRetryFired:
		if current == StateReconnecting {
			return StateConnecting, nil
		}

	case EventDisconnect:
		// Always legal, idempotent.
		return StateDisconnected, nil

	case EventAuthFailed:
		if current == StateConnected {
			return StateFailed, nil
		}
	}

	return current, ErrInvalidTransition
}

package transport

import (
	"context"
	"errors"
)

// Transport errors.
var (
	ErrNotOpen     = errors.New("transport not open")
	ErrAlreadyOpen = errors.New("transport already open")
	ErrClosed      = errors.New("transport closed")
)

// EventType identifies an inbound transport event.
type EventType uint8

const (
	// EventOpen signals the channel is established.
	EventOpen EventType = iota

	// EventMessage carries an inbound frame.
	EventMessage

	// EventClose signals the channel closed.
	EventClose

	// EventError signals a channel-level failure.
	EventError
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "OPEN"
	case EventMessage:
		return "MESSAGE"
	case EventClose:
		return "CLOSE"
	case EventError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is an inbound transport event.
type Event struct {
	// Type classifies the event.
	Type EventType

	// Payload is the raw frame bytes for EventMessage.
	Payload []byte

	// Code is the close code for EventClose, when known.
	Code int

	// Err is the failure for EventError.
	Err error
}

// Transport is the duplex channel to the bridge.
//
// Implementations must deliver events in arrival order on the Events
// channel and close it after the terminal EventClose or EventError.
type Transport interface {
	// Open establishes the channel. Blocks until the channel is up,
	// the context is done, or the attempt fails.
	Open(ctx context.Context) error

	// Close tears down the channel. Safe to call multiple times and
	// before Open.
	Close() error

	// Send writes one frame to the channel.
	Send(ctx context.Context, data []byte) error

	// Events returns the inbound event stream. The channel is created
	// by Open; events arriving with no reader are dropped only after
	// the buffer fills, so consumers should drain promptly.
	Events() <-chan Event
}

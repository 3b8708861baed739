package client

import (
	"fmt"

	"github.com/chatwire/chatwire-go/pkg/ratelimit"
)

// Connection error subcodes.
const (
	// SubcodeDialFailed: the bridge endpoint could not be reached.
	SubcodeDialFailed = "dial_failed"

	// SubcodeHelloRejected: the bridge refused the session hello.
	SubcodeHelloRejected = "hello_rejected"

	// SubcodeChannelError: the bridge channel failed mid-connection.
	SubcodeChannelError = "channel_error"

	// SubcodeNotConnected: an operation requires an open connection.
	SubcodeNotConnected = "not_connected"

	// SubcodeHeartbeatStale: the heartbeat watchdog declared the
	// connection stale.
	SubcodeHeartbeatStale = "heartbeat_stale"

	// SubcodeMaxAttempts: automatic reconnection gave up.
	SubcodeMaxAttempts = "max_reconnect_attempts_reached"
)

// ConnectionError is a transport-level failure with a machine-readable
// subcode.
type ConnectionError struct {
	// Subcode classifies the failure.
	Subcode string

	// Err is the underlying cause, when any.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection error (%s): %v", e.Subcode, e.Err)
	}
	return fmt.Sprintf("connection error (%s)", e.Subcode)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError is a strategy failure, timeout, or missing
// required parameter during authentication.
type AuthenticationError struct {
	// Strategy names the strategy that failed.
	Strategy string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %v", e.Strategy, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AuthenticationError) Unwrap() error { return e.Err }

// RateLimitError reports an exceeded send window, including the
// offending window and its time to reset.
type RateLimitError = ratelimit.Error

// MessageError is a send rejected by validation, the queue, or the
// bridge.
type MessageError struct {
	// Target is the destination of the rejected send.
	Target string

	// Reason explains the rejection.
	Reason string

	// Err is the underlying cause, when any.
	Err error
}

// Error implements the error interface.
func (e *MessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("message to %q rejected: %s: %v", e.Target, e.Reason, e.Err)
	}
	return fmt.Sprintf("message to %q rejected: %s", e.Target, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *MessageError) Unwrap() error { return e.Err }

// Package connection provides connection lifecycle management for the
// chatwire client.
//
// This package handles:
//   - The connection state machine (single source of truth for state)
//   - Exponential backoff for reconnection attempts
//   - Bounded automatic reconnection on connection loss
//
// # Reconnection Strategy
//
// When an authenticated connection is lost, the client retries with
// exponential backoff:
//
//  1. Initial delay: 5 seconds
//  2. Exponential increase: 10s, 20s, 40s
//  3. Maximum delay: 60 seconds
//  4. Give up after the configured attempt bound (default 10)
//  5. Reset to 5s on successful reconnection
//
// Delays are deterministic (no jitter): a single client talks to its
// own local bridge process, so thundering herd is not a concern.
//
// # Terminal Failure
//
// Exhausting the attempt bound moves the state machine to FAILED and
// fires a one-shot exhaustion signal. FAILED is terminal for automatic
// recovery; an explicit Connect call resets the attempt counter and
// leaves FAILED.
package connection

// Package auth drives the authentication round against the bridge.
//
// Three strategies are supported: QR (poll for a scannable payload and
// wait for the phone to confirm), pairing code (generate a short code
// the user types into the phone), and session restore (replay stored
// credentials, falling back to QR when the bridge rejects them).
//
// The orchestrator allows at most one live attempt. Starting a new
// attempt cancels the previous one; its caller unblocks with
// ErrAttemptCancelled rather than hanging.
package auth

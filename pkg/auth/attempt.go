package auth

import "time"

// Status is the resolution state of an authentication attempt.
type Status uint8

// Attempt statuses.
const (
	StatusPending Status = iota
	StatusSucceeded
	StatusTimedOut
	StatusFailed
	StatusCancelled
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusTimedOut:
		return "TIMED_OUT"
	case StatusFailed:
		return "FAILED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Attempt is a snapshot of one authentication round.
type Attempt struct {
	// ID uniquely identifies the attempt.
	ID string

	// Strategy is the name of the strategy driving the attempt.
	Strategy string

	// StartedAt is when the attempt began.
	StartedAt time.Time

	// ExpiresAt is when the attempt times out.
	ExpiresAt time.Time

	// Artifact is the latest pairing artifact (QR payload or code).
	Artifact string

	// Status is the attempt's resolution state.
	Status Status
}

// Result is the outcome of a successful authentication round.
type Result struct {
	// Credentials is the opaque credential blob issued by the bridge.
	Credentials []byte

	// Restored is true when stored credentials were replayed and no
	// pairing round happened.
	Restored bool
}

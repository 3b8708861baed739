// Package queue serializes outbound sends per target.
//
// Every target gets its own FIFO lane with a dedicated worker, so sends
// to one conversation go out in submission order while distinct targets
// interleave freely. An entry leaves its lane when the transport accepts
// the frame, not when the remote side acknowledges it.
//
// The queue never retries: a transport rejection fails the blocked
// caller and retry policy stays with the caller.
package queue

package client

import (
	"sync"
	"time"
)

// SessionState tracks the authentication side of the client lifecycle,
// next to the connection state machine.
//
// Invariant: ready implies authenticated, and any transition to a
// disconnected or failed connection forces ready back to false.
type SessionState struct {
	mu sync.Mutex

	authenticated     bool
	ready             bool
	reconnectAttempts uint
	lastHeartbeat     time.Time
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Authenticated     bool
	Ready             bool
	ReconnectAttempts uint
	LastHeartbeat     time.Time
}

// Authenticated reports whether the session completed an
// authentication round.
func (s *SessionState) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Ready reports whether the session is authenticated and connected.
func (s *SessionState) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// setAuthenticated marks the session authenticated. Clearing it also
// clears ready.
func (s *SessionState) setAuthenticated(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = v
	if !v {
		s.ready = false
	}
}

// setReady marks the session ready. Ignored while unauthenticated.
func (s *SessionState) setReady(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v && !s.authenticated {
		return
	}
	s.ready = v
}

// setReconnectAttempts records the attempt counter for snapshots.
func (s *SessionState) setReconnectAttempts(n uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnectAttempts = n
}

// setLastHeartbeat records the latest probe acknowledgment time.
func (s *SessionState) setLastHeartbeat(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = t
}

// Snapshot returns a copy of the session state.
func (s *SessionState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Authenticated:     s.authenticated,
		Ready:             s.ready,
		ReconnectAttempts: s.reconnectAttempts,
		LastHeartbeat:     s.lastHeartbeat,
	}
}

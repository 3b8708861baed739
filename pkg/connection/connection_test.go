package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateReconnecting, "RECONNECTING"},
		{StateFailed, "FAILED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{EventConnect, "CONNECT"},
		{EventOpened, "OPENED"},
		{EventOpenFailed, "OPEN_FAILED"},
		{EventClosed, "CLOSED"},
		{EventRetryScheduled, "RETRY_SCHEDULED"},
		{EventRetryFired, "RETRY_FIRED"},
		{EventDisconnect, "DISCONNECT"},
		{EventAuthFailed, "AUTH_FAILED"},
		{Event(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.event.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateMachine(t *testing.T) {
	t.Run("HappyPath", func(t *testing.T) {
		sm := NewStateMachine()

		steps := []struct {
			event Event
			want  State
		}{
			{EventConnect, StateConnecting},
			{EventOpened, StateConnected},
			{EventClosed, StateDisconnected},
			{EventRetryScheduled, StateReconnecting},
			{EventRetryFired, StateConnecting},
			{EventOpened, StateConnected},
			{EventDisconnect, StateDisconnected},
		}

		for i, step := range steps {
			_, got, err := sm.Transition(step.event, "")
			if err != nil {
				t.Fatalf("step %d: Transition(%v) error = %v", i, step.event, err)
			}
			if got != step.want {
				t.Fatalf("step %d: state = %v, want %v", i, got, step.want)
			}
		}
	})

	t.Run("IllegalEvents", func(t *testing.T) {
		tests := []struct {
			from  State
			event Event
		}{
			{StateDisconnected, EventOpened},
			{StateDisconnected, EventRetryFired},
			{StateDisconnected, EventClosed},
			{StateConnected, EventConnect},
			{StateConnected, EventRetryScheduled},
			{StateConnecting, EventConnect},
			{StateReconnecting, EventOpened},
			{StateFailed, EventOpened},
			{StateDisconnected, EventAuthFailed},
			{StateConnecting, EventAuthFailed},
		}

		for _, tt := range tests {
			sm := &StateMachine{state: tt.from}
			_, got, err := sm.Transition(tt.event, "")
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%v on %v: err = %v, want ErrInvalidTransition", tt.event, tt.from, err)
			}
			if got != tt.from {
				t.Errorf("%v on %v: state moved to %v", tt.event, tt.from, got)
			}
		}
	})

	t.Run("DuplicateOpenedIsNoop", func(t *testing.T) {
		sm := &StateMachine{state: StateConnected}

		var changes int
		sm.OnChange(func(old, new State, reason string) { changes++ })

		old, new, err := sm.Transition(EventOpened, "")
		if err != nil {
			t.Fatalf("Transition() error = %v", err)
		}
		if old != StateConnected || new != StateConnected {
			t.Errorf("transition = %v->%v, want CONNECTED->CONNECTED", old, new)
		}
		if changes != 0 {
			t.Errorf("OnChange fired %d times for a no-op", changes)
		}
	})

	t.Run("DisconnectAlwaysLegal", func(t *testing.T) {
		for _, from := range []State{StateDisconnected, StateConnecting, StateConnected, StateReconnecting, StateFailed} {
			sm := &StateMachine{state: from}
			_, got, err := sm.Transition(EventDisconnect, "")
			if err != nil {
				t.Errorf("Disconnect from %v: error = %v", from, err)
			}
			if got != StateDisconnected {
				t.Errorf("Disconnect from %v: state = %v", from, got)
			}
		}
	})

	t.Run("DisconnectIdempotent", func(t *testing.T) {
		sm := &StateMachine{state: StateConnected}

		var changes int
		sm.OnChange(func(old, new State, reason string) { changes++ })

		sm.Transition(EventDisconnect, "")
		sm.Transition(EventDisconnect, "")

		if changes != 1 {
			t.Errorf("OnChange fired %d times, want 1", changes)
		}
	})

	t.Run("AuthFailureIsTerminal", func(t *testing.T) {
		sm := &StateMachine{state: StateConnected}
		_, got, err := sm.Transition(EventAuthFailed, "auth window elapsed")
		if err != nil {
			t.Fatalf("Transition() error = %v", err)
		}
		if got != StateFailed {
			t.Errorf("state = %v, want FAILED", got)
		}
	})

	t.Run("ConnectRecoversFromFailed", func(t *testing.T) {
		sm := &StateMachine{state: StateFailed}
		_, got, err := sm.Transition(EventConnect, "")
		if err != nil {
			t.Fatalf("Transition() error = %v", err)
		}
		if got != StateConnecting {
			t.Errorf("state = %v, want CONNECTING", got)
		}
	})
}

func TestDelay(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		// base 5s -> 5s, 10s, 20s, 40s, 60s (capped), 60s...
		expected := []time.Duration{
			5 * time.Second,
			10 * time.Second,
			20 * time.Second,
			40 * time.Second,
			60 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}

		got := Sequence(DefaultBaseDelay, MaxDelay, len(expected))
		for i, exp := range expected {
			if got[i] != exp {
				t.Errorf("attempt %d: delay = %v, want %v", i, got[i], exp)
			}
		}
	})

	t.Run("LargeAttemptIsCapped", func(t *testing.T) {
		if d := Delay(DefaultBaseDelay, MaxDelay, 64); d != MaxDelay {
			t.Errorf("Delay(64) = %v, want %v", d, MaxDelay)
		}
	})

	t.Run("ZeroConfigFallsBack", func(t *testing.T) {
		if d := Delay(0, 0, 0); d != DefaultBaseDelay {
			t.Errorf("Delay(0,0,0) = %v, want %v", d, DefaultBaseDelay)
		}
	})
}

func TestBackoff(t *testing.T) {
	t.Run("NextAdvances", func(t *testing.T) {
		b := NewBackoffWithLimits(100*time.Millisecond, 500*time.Millisecond)

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}

		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("attempt %d: got %v, want %v", i, got, exp)
			}
		}
		if b.Attempts() != uint(len(expected)) {
			t.Errorf("Attempts() = %d, want %d", b.Attempts(), len(expected))
		}
	})

	t.Run("PeekDoesNotAdvance", func(t *testing.T) {
		b := NewBackoff()
		if b.Peek() != b.Peek() {
			t.Error("Peek() advanced the counter")
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after Peek, want 0", b.Attempts())
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff()
		for i := 0; i < 5; i++ {
			b.Next()
		}
		b.Reset()

		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
		if b.Peek() != DefaultBaseDelay {
			t.Errorf("Peek() = %v after reset, want %v", b.Peek(), DefaultBaseDelay)
		}
	})
}

func TestReconnector(t *testing.T) {
	shortCfg := func(maxAttempts uint) ReconnectorConfig {
		return ReconnectorConfig{
			MaxAttempts:    maxAttempts,
			BaseDelay:      10 * time.Millisecond,
			MaxDelay:       40 * time.Millisecond,
			AttemptTimeout: time.Second,
		}
	}

	t.Run("ReconnectsAfterFailures", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		var connectCount atomic.Int32
		r := NewReconnector(sm, func(ctx context.Context) error {
			if connectCount.Add(1) < 3 {
				return errors.New("not yet")
			}
			return nil
		}, shortCfg(10))
		defer r.Close()

		done := make(chan struct{})
		r.OnConnected(func() { close(done) })

		r.ConnectionLost()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("reconnection did not complete")
		}

		if sm.State() != StateConnected {
			t.Errorf("state = %v, want CONNECTED", sm.State())
		}
		if got := connectCount.Load(); got != 3 {
			t.Errorf("connect called %d times, want 3", got)
		}
		if r.Attempts() != 0 {
			t.Errorf("Attempts() = %d after success, want 0", r.Attempts())
		}
	})

	t.Run("ExhaustionIsTerminalAndFiresOnce", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		var connectCount atomic.Int32
		r := NewReconnector(sm, func(ctx context.Context) error {
			connectCount.Add(1)
			return errors.New("bridge down")
		}, shortCfg(3))
		defer r.Close()

		var mu sync.Mutex
		var transitions []State
		sm.OnChange(func(old, new State, reason string) {
			mu.Lock()
			transitions = append(transitions, new)
			mu.Unlock()
		})

		var exhausted atomic.Int32
		done := make(chan struct{})
		r.OnExhausted(func() {
			if exhausted.Add(1) == 1 {
				close(done)
			}
		})

		r.ConnectionLost()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("exhaustion signal never fired")
		}

		if sm.State() != StateFailed {
			t.Errorf("state = %v, want FAILED", sm.State())
		}
		if got := connectCount.Load(); got != 3 {
			t.Errorf("connect called %d times, want 3", got)
		}
		if got := exhausted.Load(); got != 1 {
			t.Errorf("exhaustion fired %d times, want 1", got)
		}

		// DISCONNECTED -> RECONNECTING -> CONNECTING -> FAILED, three rounds
		mu.Lock()
		defer mu.Unlock()
		want := []State{
			StateReconnecting, StateConnecting, StateFailed,
			StateReconnecting, StateConnecting, StateFailed,
			StateReconnecting, StateConnecting, StateFailed,
		}
		if len(transitions) != len(want) {
			t.Fatalf("got %d transitions (%v), want %d", len(transitions), transitions, len(want))
		}
		for i := range want {
			if transitions[i] != want[i] {
				t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
			}
		}
	})

	t.Run("DisabledDoesNothing", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		var connectCount atomic.Int32
		r := NewReconnector(sm, func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, shortCfg(10))
		defer r.Close()

		r.SetEnabled(false)
		r.ConnectionLost()

		time.Sleep(50 * time.Millisecond)
		if connectCount.Load() != 0 {
			t.Error("connect was called with reconnection disabled")
		}
		if sm.State() != StateDisconnected {
			t.Errorf("state = %v, want DISCONNECTED", sm.State())
		}
	})

	t.Run("GateRejects", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		var connectCount atomic.Int32
		r := NewReconnector(sm, func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, shortCfg(10))
		defer r.Close()

		r.SetGate(func() bool { return false })
		r.ConnectionLost()

		time.Sleep(50 * time.Millisecond)
		if connectCount.Load() != 0 {
			t.Error("connect was called despite gate rejection")
		}
	})

	t.Run("DisconnectDuringAttemptAbandons", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		started := make(chan struct{})
		release := make(chan struct{})
		r := NewReconnector(sm, func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		}, shortCfg(10))
		defer r.Close()

		var connected atomic.Int32
		r.OnConnected(func() { connected.Add(1) })

		abandoned := make(chan struct{})
		r.OnAbandoned(func() { close(abandoned) })

		r.ConnectionLost()
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("attempt never started")
		}

		// Explicit disconnect while the connect is in flight
		r.Stop()
		sm.Transition(EventDisconnect, "disconnect requested")
		close(release)

		select {
		case <-abandoned:
		case <-time.After(2 * time.Second):
			t.Fatal("abandoned connection was not torn down")
		}

		if got := connected.Load(); got != 0 {
			t.Errorf("OnConnected fired %d times after explicit disconnect", got)
		}
		if sm.State() != StateDisconnected {
			t.Errorf("state = %v, want DISCONNECTED", sm.State())
		}
	})

	t.Run("DisconnectDuringFailingAttemptStopsRetrying", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		started := make(chan struct{})
		release := make(chan struct{})
		var connectCount atomic.Int32
		r := NewReconnector(sm, func(ctx context.Context) error {
			if connectCount.Add(1) == 1 {
				close(started)
				<-release
			}
			return errors.New("bridge down")
		}, shortCfg(10))
		defer r.Close()

		r.ConnectionLost()
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("attempt never started")
		}

		r.Stop()
		sm.Transition(EventDisconnect, "disconnect requested")
		close(release)

		time.Sleep(100 * time.Millisecond)
		if got := connectCount.Load(); got != 1 {
			t.Errorf("connect retried %d times after explicit disconnect", got)
		}
		if sm.State() != StateDisconnected {
			t.Errorf("state = %v, want DISCONNECTED", sm.State())
		}
	})

	t.Run("StopCancelsScheduledAttempt", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		var connectCount atomic.Int32
		r := NewReconnector(sm, func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, ReconnectorConfig{MaxAttempts: 10, BaseDelay: 100 * time.Millisecond})
		defer r.Close()

		r.ConnectionLost()
		r.Stop()

		time.Sleep(200 * time.Millisecond)
		if connectCount.Load() != 0 {
			t.Error("connect fired after Stop")
		}
	})

	t.Run("ResetClearsCounter", func(t *testing.T) {
		sm := &StateMachine{state: StateDisconnected}

		r := NewReconnector(sm, func(ctx context.Context) error {
			return errors.New("down")
		}, shortCfg(2))
		defer r.Close()

		done := make(chan struct{})
		r.OnExhausted(func() { close(done) })

		r.ConnectionLost()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("exhaustion signal never fired")
		}

		r.Reset()
		if r.Attempts() != 0 {
			t.Errorf("Attempts() = %d after Reset, want 0", r.Attempts())
		}
	})
}

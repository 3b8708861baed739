package connection

import (
	"context"
	"sync"
	"time"
)

// Reconnection defaults.
const (
	// DefaultMaxAttempts is the default reconnection attempt bound.
	DefaultMaxAttempts = 10

	// DefaultAttemptTimeout bounds a single reconnection attempt.
	DefaultAttemptTimeout = 30 * time.Second
)

// ConnectFunc is called to establish a connection.
// It should return nil on success or an error on failure.
type ConnectFunc func(ctx context.Context) error

// ReconnectorConfig configures automatic reconnection.
type ReconnectorConfig struct {
	// MaxAttempts is the attempt bound before giving up (default 10).
	MaxAttempts uint

	// BaseDelay is the initial backoff delay (default 5s).
	BaseDelay time.Duration

	// MaxDelay is the backoff ceiling (default 60s).
	MaxDelay time.Duration

	// AttemptTimeout bounds each connection attempt (default 30s).
	AttemptTimeout time.Duration
}

// Reconnector schedules bounded reconnection attempts with exponential
// backoff after an unplanned connection loss.
//
// Retries run only while reconnection is enabled and the gate (if set)
// allows it; the client gates on an authenticated session so a client
// that never paired does not retry into an unauthenticated bridge.
type Reconnector struct {
	mu sync.Mutex

	sm      *StateMachine
	backoff *Backoff
	connect ConnectFunc

	maxAttempts    uint
	attemptTimeout time.Duration

	enabled   bool
	gate      func() bool
	timer     *time.Timer
	exhausted bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onScheduled func(attempt uint, delay time.Duration)
	onConnected func()
	onAbandoned func()
	onExhausted func()
}

// NewReconnector creates a reconnector bound to a state machine.
func NewReconnector(sm *StateMachine, connect ConnectFunc, cfg ReconnectorConfig) *Reconnector {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Reconnector{
		sm:             sm,
		backoff:        NewBackoffWithLimits(cfg.BaseDelay, cfg.MaxDelay),
		connect:        connect,
		maxAttempts:    cfg.MaxAttempts,
		attemptTimeout: cfg.AttemptTimeout,
		enabled:        true,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// SetEnabled enables or disables automatic reconnection.
func (r *Reconnector) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// SetGate sets an additional retry condition checked on connection loss.
func (r *Reconnector) SetGate(fn func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = fn
}

// OnScheduled sets a callback fired when an attempt is scheduled.
// The attempt number is 1-based.
func (r *Reconnector) OnScheduled(fn func(attempt uint, delay time.Duration)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onScheduled = fn
}

// OnConnected sets a callback fired after a successful reconnection.
func (r *Reconnector) OnConnected(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onConnected = fn
}

// OnAbandoned sets a callback fired when an in-flight attempt
// succeeded but an explicit disconnect had already moved the machine
// away. The callback must tear down whatever the connect opened.
func (r *Reconnector) OnAbandoned(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAbandoned = fn
}

// OnExhausted sets a callback fired exactly once when the attempt
// bound is reached.
func (r *Reconnector) OnExhausted(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExhausted = fn
}

// Attempts returns the attempts since the last successful connection.
func (r *Reconnector) Attempts() uint {
	return r.backoff.Attempts()
}

// ConnectionLost schedules a reconnection attempt after an unplanned
// transition to DISCONNECTED. No-op when reconnection is disabled or
// the gate rejects.
func (r *Reconnector) ConnectionLost() {
	r.mu.Lock()
	if !r.enabled || (r.gate != nil && !r.gate()) {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.schedule()
}

// Reset cancels any scheduled attempt and resets the attempt counter.
// Called on explicit connects so FAILED is recoverable by the caller.
func (r *Reconnector) Reset() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.exhausted = false
	r.mu.Unlock()

	r.backoff.Reset()
}

// Stop cancels any scheduled attempt without touching the counter.
// Called on explicit disconnects.
func (r *Reconnector) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Close shuts the reconnector down and waits for any in-flight attempt.
func (r *Reconnector) Close() {
	r.Stop()
	r.cancel()
	r.wg.Wait()
}

// schedule arms the backoff timer for the next attempt, or gives up
// when the bound is reached.
func (r *Reconnector) schedule() {
	attempts := r.backoff.Attempts()
	if attempts >= r.maxAttempts {
		r.giveUp()
		return
	}

	delay := r.backoff.Peek()
	if _, _, err := r.sm.Transition(EventRetryScheduled, "connection lost"); err != nil {
		return
	}

	r.mu.Lock()
	onScheduled := r.onScheduled
	r.timer = time.AfterFunc(delay, r.fire)
	r.mu.Unlock()

	if onScheduled != nil {
		onScheduled(attempts+1, delay)
	}
}

// fire runs one reconnection attempt.
func (r *Reconnector) fire() {
	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	r.wg.Add(1)
	r.mu.Unlock()
	defer r.wg.Done()

	r.backoff.Next() // consume this attempt

	if _, _, err := r.sm.Transition(EventRetryFired, "backoff elapsed"); err != nil {
		// The machine left RECONNECTING, e.g. an explicit disconnect
		// raced the timer. Abandon the attempt.
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.attemptTimeout)
	err := r.connect(ctx)
	cancel()

	if err == nil {
		if _, _, terr := r.sm.Transition(EventOpened, "reconnected"); terr != nil {
			// An explicit disconnect raced the in-flight connect. The
			// connection came up into a machine that no longer wants
			// it; hand it to the teardown hook instead of reporting
			// success.
			r.mu.Lock()
			onAbandoned := r.onAbandoned
			r.mu.Unlock()

			if onAbandoned != nil {
				onAbandoned()
			}
			return
		}
		r.backoff.Reset()

		r.mu.Lock()
		r.exhausted = false
		onConnected := r.onConnected
		r.mu.Unlock()

		if onConnected != nil {
			onConnected()
		}
		return
	}

	if _, _, terr := r.sm.Transition(EventOpenFailed, err.Error()); terr != nil {
		// Same race on the failure path: the machine already left
		// CONNECTING, so there is nothing to reschedule.
		return
	}

	r.mu.Lock()
	stopped := r.ctx.Err() != nil
	r.mu.Unlock()
	if stopped {
		return
	}

	r.schedule()
}

// giveUp emits the one-shot exhaustion signal and leaves the machine
// in FAILED. The machine is already FAILED when the last attempt
// failed; the transition here covers the degenerate MaxAttempts=0 case.
func (r *Reconnector) giveUp() {
	r.mu.Lock()
	if r.exhausted {
		r.mu.Unlock()
		return
	}
	r.exhausted = true
	onExhausted := r.onExhausted
	r.mu.Unlock()

	if r.sm.State() != StateFailed {
		r.sm.Transition(EventRetryScheduled, "max attempts")
		r.sm.Transition(EventRetryFired, "max attempts")
		r.sm.Transition(EventOpenFailed, "max reconnect attempts reached")
	}

	if onExhausted != nil {
		onExhausted()
	}
}

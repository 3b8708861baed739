package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Orchestrator errors.
var (
	// ErrAuthTimeout is returned when the attempt window elapses
	// before the phone confirms.
	ErrAuthTimeout = errors.New("authentication timed out")

	// ErrAttemptCancelled is returned to a waiter whose attempt was
	// cancelled, either explicitly or by a newer attempt.
	ErrAttemptCancelled = errors.New("authentication attempt cancelled")
)

// Default orchestrator parameters.
const (
	// DefaultQRPollInterval is the default QR payload poll interval.
	DefaultQRPollInterval = 5 * time.Second

	// DefaultStatusPollInterval is the default auth status poll
	// interval.
	DefaultStatusPollInterval = 2 * time.Second

	// DefaultTimeout is the default attempt window.
	DefaultTimeout = 120 * time.Second
)

// Config holds orchestrator parameters.
type Config struct {
	// QRPollInterval is how often the QR payload is polled.
	QRPollInterval time.Duration

	// StatusPollInterval is how often the auth status is polled.
	StatusPollInterval time.Duration

	// Timeout bounds one attempt.
	Timeout time.Duration
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		QRPollInterval:     DefaultQRPollInterval,
		StatusPollInterval: DefaultStatusPollInterval,
		Timeout:            DefaultTimeout,
	}
}

// handle tracks one live attempt. done closes once the attempt's
// strategy has fully returned, pollers included.
type handle struct {
	attempt   *Attempt
	cancel    context.CancelFunc
	cancelled bool
	done      chan struct{}
}

// Orchestrator runs authentication attempts, at most one at a time.
type Orchestrator struct {
	mu      sync.Mutex
	prober  Prober
	config  Config
	current *handle

	onQR          func(payload string, updated bool)
	onPairingCode func(code string)
}

// NewOrchestrator creates an orchestrator with default parameters.
func NewOrchestrator(prober Prober) *Orchestrator {
	return NewOrchestratorWithConfig(prober, DefaultConfig())
}

// NewOrchestratorWithConfig creates an orchestrator with explicit
// parameters. Zero values fall back to the defaults.
func NewOrchestratorWithConfig(prober Prober, config Config) *Orchestrator {
	if config.QRPollInterval <= 0 {
		config.QRPollInterval = DefaultQRPollInterval
	}
	if config.StatusPollInterval <= 0 {
		config.StatusPollInterval = DefaultStatusPollInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Orchestrator{
		prober: prober,
		config: config,
	}
}

// SetOnQR sets the callback for QR payloads. updated is false for the
// first payload of an attempt.
func (o *Orchestrator) SetOnQR(handler func(payload string, updated bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onQR = handler
}

// SetOnPairingCode sets the callback for generated pairing codes.
func (o *Orchestrator) SetOnPairingCode(handler func(code string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onPairingCode = handler
}

// Authenticate runs one attempt with the given strategy and blocks
// until it resolves. A prior pending attempt is cancelled first and
// its pollers drained before the new round starts; the prior waiter
// unblocks with ErrAttemptCancelled.
func (o *Orchestrator) Authenticate(ctx context.Context, strategy Strategy) (*Result, error) {
	actx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	o.mu.Lock()
	// Supersede the prior attempt and wait for its strategy to wind
	// down; two rounds must never probe the bridge concurrently.
	for o.current != nil {
		prior := o.current
		prior.cancelled = true
		prior.cancel()
		o.mu.Unlock()
		<-prior.done
		o.mu.Lock()
	}

	now := time.Now()
	h := &handle{
		attempt: &Attempt{
			ID:        uuid.NewString(),
			Strategy:  strategy.Name(),
			StartedAt: now,
			ExpiresAt: now.Add(o.config.Timeout),
			Status:    StatusPending,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	o.current = h

	round := &Round{
		Prober:        o.prober,
		Config:        o.config,
		onQR:          o.onQR,
		onPairingCode: o.onPairingCode,
		setArtifact: func(artifact string) {
			o.mu.Lock()
			h.attempt.Artifact = artifact
			o.mu.Unlock()
		},
	}
	o.mu.Unlock()

	result, err := strategy.Run(actx, round)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == h {
		o.current = nil
	}
	close(h.done)

	switch {
	case err == nil:
		h.attempt.Status = StatusSucceeded
		return result, nil
	case h.cancelled:
		h.attempt.Status = StatusCancelled
		return nil, ErrAttemptCancelled
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		h.attempt.Status = StatusTimedOut
		return nil, ErrAuthTimeout
	default:
		h.attempt.Status = StatusFailed
		return nil, err
	}
}

// Cancel cancels the pending attempt, if any. The waiter unblocks with
// ErrAttemptCancelled. No-op when nothing is pending.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil {
		return
	}
	o.current.cancelled = true
	o.current.cancel()
}

// Current returns a snapshot of the pending attempt, or nil.
func (o *Orchestrator) Current() *Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil {
		return nil
	}
	snapshot := *o.current.attempt
	return &snapshot
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chatwire/chatwire-go/pkg/session"
)

// Strategy errors.
var (
	// ErrMissingPhoneNumber is returned by the pairing-code strategy
	// when no phone number was supplied.
	ErrMissingPhoneNumber = errors.New("pairing-code strategy requires a phone number")
)

// Prober is the bridge-side surface the strategies poll.
type Prober interface {
	// RequestQR fetches the current QR payload. An empty payload
	// means the bridge has none yet.
	RequestQR(ctx context.Context) (string, error)

	// AuthStatus reports whether the phone confirmed the link and,
	// once it has, the credential blob to persist.
	AuthStatus(ctx context.Context) (authenticated bool, credentials []byte, err error)

	// SubmitPairingCode asks the bridge to offer the code to the
	// account behind the phone number.
	SubmitPairingCode(ctx context.Context, phoneNumber, code string) error

	// RestoreSession replays a stored session key. Returns false
	// when the bridge rejects it.
	RestoreSession(ctx context.Context, name string, key []byte) (bool, error)
}

// Round is the orchestrator-provided context one attempt runs in.
type Round struct {
	// Prober reaches the bridge.
	Prober Prober

	// Config holds the polling intervals.
	Config Config

	onQR          func(payload string, updated bool)
	onPairingCode func(code string)
	setArtifact   func(artifact string)
}

// EmitQR surfaces a QR payload to the application. updated is false
// for the first payload of the attempt.
func (r *Round) EmitQR(payload string, updated bool) {
	if r.setArtifact != nil {
		r.setArtifact(payload)
	}
	if r.onQR != nil {
		r.onQR(payload, updated)
	}
}

// EmitPairingCode surfaces a pairing code to the application.
func (r *Round) EmitPairingCode(code string) {
	if r.setArtifact != nil {
		r.setArtifact(code)
	}
	if r.onPairingCode != nil {
		r.onPairingCode(code)
	}
}

// pollStatus polls the authentication status until the phone confirms
// or ctx is done. Transient poll errors are tolerated; the attempt
// timeout bounds how long they can persist.
func (r *Round) pollStatus(ctx context.Context) (*Result, error) {
	ticker := time.NewTicker(r.Config.StatusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			authenticated, credentials, err := r.Prober.AuthStatus(ctx)
			if err != nil {
				continue
			}
			if authenticated {
				return &Result{Credentials: credentials}, nil
			}
		}
	}
}

// Strategy drives one flavor of authentication round.
type Strategy interface {
	// Name identifies the strategy in attempts and logs.
	Name() string

	// Run performs the round. It returns ctx.Err() when the attempt
	// is cancelled or times out.
	Run(ctx context.Context, round *Round) (*Result, error)
}

// QRStrategy polls the bridge for a scannable QR payload and waits for
// the phone to confirm the link.
type QRStrategy struct{}

// Name implements Strategy.
func (s *QRStrategy) Name() string { return "qr" }

// Run implements Strategy.
func (s *QRStrategy) Run(ctx context.Context, round *Round) (*Result, error) {
	qrTicker := time.NewTicker(round.Config.QRPollInterval)
	defer qrTicker.Stop()
	statusTicker := time.NewTicker(round.Config.StatusPollInterval)
	defer statusTicker.Stop()

	var lastPayload string
	pollQR := func() {
		payload, err := round.Prober.RequestQR(ctx)
		if err != nil || payload == "" || payload == lastPayload {
			return
		}
		updated := lastPayload != ""
		lastPayload = payload
		round.EmitQR(payload, updated)
	}

	// First payload without waiting for the ticker
	pollQR()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-qrTicker.C:
			pollQR()
		case <-statusTicker.C:
			authenticated, credentials, err := round.Prober.AuthStatus(ctx)
			if err != nil {
				continue
			}
			if authenticated {
				return &Result{Credentials: credentials}, nil
			}
		}
	}
}

// PairingCodeStrategy links via a short code typed into the phone.
type PairingCodeStrategy struct {
	// PhoneNumber is the account's phone number. Required.
	PhoneNumber string
}

// Name implements Strategy.
func (s *PairingCodeStrategy) Name() string { return "pairing" }

// Run implements Strategy.
func (s *PairingCodeStrategy) Run(ctx context.Context, round *Round) (*Result, error) {
	if s.PhoneNumber == "" {
		return nil, ErrMissingPhoneNumber
	}

	code, err := GeneratePairingCode()
	if err != nil {
		return nil, err
	}

	if err := round.Prober.SubmitPairingCode(ctx, s.PhoneNumber, code.String()); err != nil {
		return nil, fmt.Errorf("failed to submit pairing code: %w", err)
	}
	round.EmitPairingCode(code.String())

	return round.pollStatus(ctx)
}

// SessionRestoreStrategy replays stored credentials and falls back to
// another strategy when the bridge rejects them.
type SessionRestoreStrategy struct {
	// Store holds persisted sessions.
	Store session.Store

	// SessionName keys the stored session.
	SessionName string

	// Fallback runs when no usable session exists. Defaults to QR.
	Fallback Strategy
}

// Name implements Strategy.
func (s *SessionRestoreStrategy) Name() string { return "session-restore" }

// Run implements Strategy.
func (s *SessionRestoreStrategy) Run(ctx context.Context, round *Round) (*Result, error) {
	result, ok, err := s.tryRestore(ctx, round)
	if err != nil {
		return nil, err
	}
	if ok {
		return result, nil
	}

	fallback := s.Fallback
	if fallback == nil {
		fallback = &QRStrategy{}
	}
	return fallback.Run(ctx, round)
}

// tryRestore attempts the replay. ok is false when the attempt should
// fall back; only cancellation is a hard error.
func (s *SessionRestoreStrategy) tryRestore(ctx context.Context, round *Round) (*Result, bool, error) {
	if s.Store == nil || s.SessionName == "" {
		return nil, false, nil
	}

	state, err := s.Store.Load(s.SessionName)
	if err != nil || state == nil {
		return nil, false, nil
	}

	key, err := session.DeriveKey(state)
	if err != nil {
		return nil, false, nil
	}

	accepted, err := round.Prober.RestoreSession(ctx, s.SessionName, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, nil
	}
	if !accepted {
		return nil, false, nil
	}

	return &Result{Credentials: state.Credentials, Restored: true}, true, nil
}

package connection

import (
	"sync"
	"time"
)

// Backoff constants.
const (
	// DefaultBaseDelay is the initial reconnection delay.
	DefaultBaseDelay = 5 * time.Second

	// MaxDelay is the maximum reconnection delay.
	MaxDelay = 60 * time.Second
)

// Delay returns the backoff delay for a given attempt number:
// min(base * 2^attempt, max). Attempt numbering starts at 0.
func Delay(base, max time.Duration, attempt uint) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = MaxDelay
	}
	// Beyond 32 doublings the shift would overflow; the cap applies
	// long before that anyway.
	if attempt > 32 {
		return max
	}
	d := base << attempt
	if d > max || d < base {
		return max
	}
	return d
}

// Backoff tracks reconnection attempts and computes pure exponential
// delays without jitter.
type Backoff struct {
	mu sync.Mutex

	base     time.Duration
	max      time.Duration
	attempts uint
}

// NewBackoff creates a backoff calculator with default settings.
func NewBackoff() *Backoff {
	return NewBackoffWithLimits(DefaultBaseDelay, MaxDelay)
}

// NewBackoffWithLimits creates a backoff calculator with custom delays.
// Non-positive values fall back to the defaults.
func NewBackoffWithLimits(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = MaxDelay
	}
	return &Backoff{base: base, max: max}
}

// Next returns the delay for the current attempt and advances the
// attempt counter.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := Delay(b.base, b.max, b.attempts)
	b.attempts++
	return d
}

// Peek returns the delay for the current attempt without advancing.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Delay(b.base, b.max, b.attempts)
}

// Reset resets the attempt counter.
// Call this after a successful connection.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = 0
}

// Attempts returns the number of attempts since the last reset.
func (b *Backoff) Attempts() uint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Sequence returns the first n delays for the given limits.
// Useful for documentation and tests.
func Sequence(base, max time.Duration, n int) []time.Duration {
	seq := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		seq = append(seq, Delay(base, max, uint(i)))
	}
	return seq
}

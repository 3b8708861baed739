package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Window identifies a rate-limit window.
type Window uint8

const (
	// WindowMinute is the one-minute window.
	WindowMinute Window = iota

	// WindowHour is the one-hour window.
	WindowHour

	// WindowDay is the 24-hour window.
	WindowDay

	windowCount
)

// String returns the window name.
func (w Window) String() string {
	switch w {
	case WindowMinute:
		return "MINUTE"
	case WindowHour:
		return "HOUR"
	case WindowDay:
		return "DAY"
	default:
		return "UNKNOWN"
	}
}

// Period returns the window duration.
func (w Window) Period() time.Duration {
	switch w {
	case WindowMinute:
		return time.Minute
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Error reports an exceeded rate limit.
type Error struct {
	// Target is the rate-limited target ("" for the global bucket).
	Target string

	// Action is the rate-limited action.
	Action string

	// Window is the exceeded window.
	Window Window

	// Limit is the window's ceiling.
	Limit uint

	// ResetIn is the remaining time until the window resets.
	ResetIn time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded for %q (%s window, limit %d, resets in %s)",
		e.Action, e.Window, e.Limit, e.ResetIn.Round(time.Second))
}

// Config sets the per-window ceilings. Zero disables a window.
type Config struct {
	// PerMinute is the one-minute ceiling.
	PerMinute uint

	// PerHour is the one-hour ceiling.
	PerHour uint

	// PerDay is the 24-hour ceiling.
	PerDay uint
}

// limit returns the ceiling for a window (0 = disabled).
func (c Config) limit(w Window) uint {
	switch w {
	case WindowMinute:
		return c.PerMinute
	case WindowHour:
		return c.PerHour
	case WindowDay:
		return c.PerDay
	default:
		return 0
	}
}

// key addresses one counter bucket.
type key struct {
	target string
	action string
}

// counter is one window's state.
type counter struct {
	count uint
	start time.Time
}

// bucket holds the counters of a (target, action) pair.
type bucket struct {
	windows [windowCount]counter
}

// Limiter applies per-target sliding-window rate limits.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	config  Config
	buckets map[key]*bucket

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// NewLimiter creates a limiter with the given ceilings.
// A zero Config disables all limiting.
func NewLimiter(config Config) *Limiter {
	return &Limiter{
		config:  config,
		buckets: make(map[key]*bucket),
		now:     time.Now,
	}
}

// Check verifies every configured window for the (target, action)
// pair and, when all pass, increments them atomically. Returns a
// *Error naming the first exceeded window otherwise; no counter is
// touched on failure.
//
// The empty target addresses the global default bucket.
func (l *Limiter) Check(target, action string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	k := key{target: target, action: action}
	b, ok := l.buckets[k]
	if !ok {
		b = &bucket{}
		for w := Window(0); w < windowCount; w++ {
			b.windows[w].start = now
		}
		l.buckets[k] = b
	}

	// Expire windows first, then verify all, then increment all.
	for w := Window(0); w < windowCount; w++ {
		if now.Sub(b.windows[w].start) >= w.Period() {
			b.windows[w] = counter{start: now}
		}
	}

	for w := Window(0); w < windowCount; w++ {
		limit := l.config.limit(w)
		if limit == 0 {
			continue
		}
		if b.windows[w].count >= limit {
			return &Error{
				Target:  target,
				Action:  action,
				Window:  w,
				Limit:   limit,
				ResetIn: w.Period() - now.Sub(b.windows[w].start),
			}
		}
	}

	for w := Window(0); w < windowCount; w++ {
		b.windows[w].count++
	}
	return nil
}

// Remaining returns how many calls are left in the tightest configured
// window for the pair. Returns true in unlimited when no window is
// configured.
func (l *Limiter) Remaining(target, action string) (remaining uint, unlimited bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key{target: target, action: action}]

	unlimited = true
	for w := Window(0); w < windowCount; w++ {
		limit := l.config.limit(w)
		if limit == 0 {
			continue
		}

		var used uint
		if ok && now.Sub(b.windows[w].start) < w.Period() {
			used = b.windows[w].count
		}

		left := uint(0)
		if used < limit {
			left = limit - used
		}
		if unlimited || left < remaining {
			remaining = left
		}
		unlimited = false
	}
	return remaining, unlimited
}

// ResetTarget clears all counters for a target.
func (l *Limiter) ResetTarget(target string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k := range l.buckets {
		if k.target == target {
			delete(l.buckets, k)
		}
	}
}

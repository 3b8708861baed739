// Package ratelimit provides per-target rate limiting for outbound
// actions.
//
// Each (target, action) pair accumulates counters over three fixed
// windows: minute, hour, and day. A check atomically verifies every
// configured window and increments all of them, so there is no
// check-then-increment race: a call either passes and is counted in
// every window, or fails and is counted in none.
//
// Targets are independent. The empty target addresses a global
// default bucket for actions not scoped to a conversation.
package ratelimit

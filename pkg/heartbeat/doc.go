// Package heartbeat provides liveness monitoring for the bridge channel.
//
// While armed, the monitor sends a probe frame on a fixed interval and
// records the time of every acknowledgment. A separate watchdog checks
// at twice the probe interval whether the last acknowledgment is older
// than three intervals; if so it declares the connection stale.
//
// Staleness is a best-effort local heuristic, not proof the remote
// side is unreachable. A loaded bridge can miss probes without the
// channel being dead, so the staleness signal feeds reconnection
// rather than being treated as a fatal error.
package heartbeat

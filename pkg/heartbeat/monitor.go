package heartbeat

import (
	"context"
	"sync"
	"time"
)

// Heartbeat constants.
const (
	// DefaultInterval is the default probe interval.
	DefaultInterval = 30 * time.Second

	// watchdogFactor is the watchdog check interval as a multiple of
	// the probe interval.
	watchdogFactor = 2

	// staleFactor is the staleness threshold as a multiple of the
	// probe interval. The connection is stale when the last
	// acknowledgment is older than staleFactor intervals.
	staleFactor = 3
)

// ProbeFunc sends one liveness probe over the transport.
type ProbeFunc func(ctx context.Context) error

// Monitor sends periodic liveness probes and watches for staleness.
//
// The monitor is armed while the connection is up and disarmed on any
// transition away from it. Probe failures are never surfaced to the
// caller; the watchdog alone decides staleness.
type Monitor struct {
	mu sync.Mutex

	interval time.Duration
	probe    ProbeFunc
	onStale  func()

	armed      bool
	staleFired bool
	lastBeat   time.Time
	stopCh     chan struct{}
	wg         sync.WaitGroup

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// NewMonitor creates a heartbeat monitor.
// A zero interval falls back to DefaultInterval.
func NewMonitor(interval time.Duration, probe ProbeFunc, onStale func()) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		interval: interval,
		probe:    probe,
		onStale:  onStale,
		now:      time.Now,
	}
}

// Interval returns the probe interval.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Arm starts probing and watching. No-op when already armed.
func (m *Monitor) Arm() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.armed {
		return
	}
	m.armed = true
	m.staleFired = false
	m.lastBeat = m.now()
	m.stopCh = make(chan struct{})

	m.wg.Add(2)
	go m.probeLoop(m.stopCh)
	go m.watchdogLoop(m.stopCh)
}

// Disarm stops probing and watching. No-op when not armed.
// Does not wait for in-flight probes.
func (m *Monitor) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.armed {
		return
	}
	m.armed = false
	close(m.stopCh)
}

// IsArmed returns true while the monitor is armed.
func (m *Monitor) IsArmed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// Ack records a probe acknowledgment.
func (m *Monitor) Ack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastBeat = m.now()
}

// LastBeat returns the time of the last recorded acknowledgment.
// Zero when the monitor has never been armed.
func (m *Monitor) LastBeat() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBeat
}

// probeLoop sends probes on the configured interval.
func (m *Monitor) probeLoop(stopCh chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Initial probe right after arming
	m.sendProbe()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.sendProbe()
		}
	}
}

// sendProbe sends one probe. Errors are swallowed: a failed probe
// shows up as a missing acknowledgment, which the watchdog handles.
func (m *Monitor) sendProbe() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()
	_ = m.probe(ctx)
}

// watchdogLoop checks for staleness at twice the probe interval.
func (m *Monitor) watchdogLoop(stopCh chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(watchdogFactor * m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.checkStale()
		}
	}
}

// checkStale fires the staleness callback at most once per arming.
func (m *Monitor) checkStale() {
	m.mu.Lock()

	if !m.armed || m.staleFired {
		m.mu.Unlock()
		return
	}

	age := m.now().Sub(m.lastBeat)
	if age <= staleFactor*m.interval {
		m.mu.Unlock()
		return
	}

	m.staleFired = true
	onStale := m.onStale
	m.mu.Unlock()

	if onStale != nil {
		onStale()
	}
}

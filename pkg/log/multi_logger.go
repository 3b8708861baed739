package log

// MultiLogger fans one event stream out to several loggers, typically
// a FileLogger for capture alongside a SlogAdapter for live output.
type MultiLogger struct {
	targets []Logger
}

// NewMultiLogger creates a logger that forwards every event to all of
// targets.
func NewMultiLogger(targets ...Logger) *MultiLogger {
	return &MultiLogger{targets: targets}
}

// Log forwards the event to each target in order.
func (m *MultiLogger) Log(event Event) {
	for _, target := range m.targets {
		target.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)

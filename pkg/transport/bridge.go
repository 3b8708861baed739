package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Bridge channel defaults.
const (
	// DefaultDialTimeout is the default WebSocket handshake timeout.
	DefaultDialTimeout = 30 * time.Second

	// DefaultWriteTimeout is the default per-frame write deadline.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultMaxFrameSize is the default inbound frame size limit.
	DefaultMaxFrameSize = 1 << 20 // 1 MiB

	// DefaultEventBuffer is the default inbound event buffer size.
	DefaultEventBuffer = 64
)

// BridgeConfig configures the WebSocket channel to the bridge process.
type BridgeConfig struct {
	// URL is the bridge WebSocket endpoint (e.g., "ws://127.0.0.1:8799/channel").
	URL string

	// DialTimeout is the handshake timeout (default: 30s).
	DialTimeout time.Duration

	// WriteTimeout is the per-frame write deadline (default: 10s).
	WriteTimeout time.Duration

	// MaxFrameSize limits inbound frame size (default: 1 MiB).
	MaxFrameSize int64

	// EventBuffer is the inbound event buffer size (default: 64).
	EventBuffer int
}

// Bridge is the WebSocket transport to the local bridge process.
// It implements Transport.
type Bridge struct {
	config BridgeConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	events chan Event
	closed bool
}

// NewBridge creates a bridge transport for the given endpoint.
func NewBridge(config BridgeConfig) *Bridge {
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.MaxFrameSize == 0 {
		config.MaxFrameSize = DefaultMaxFrameSize
	}
	if config.EventBuffer == 0 {
		config.EventBuffer = DefaultEventBuffer
	}
	return &Bridge{config: config}
}

// Open dials the bridge endpoint and starts the read pump.
func (b *Bridge) Open(ctx context.Context) error {
	b.mu.Lock()
	if b.conn != nil {
		b.mu.Unlock()
		return ErrAlreadyOpen
	}
	b.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: b.config.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, b.config.URL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("bridge dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("bridge dial failed: %w", err)
	}
	conn.SetReadLimit(b.config.MaxFrameSize)

	events := make(chan Event, b.config.EventBuffer)

	b.mu.Lock()
	b.conn = conn
	b.events = events
	b.closed = false
	b.mu.Unlock()

	events <- Event{Type: EventOpen}
	go b.readPump(conn, events)

	return nil
}

// Close tears down the channel. A close control frame is sent on a
// best-effort basis; the read pump emits the terminal EventClose.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.closed = true
	b.mu.Unlock()

	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}

// Send writes one binary frame to the channel.
func (b *Bridge) Send(ctx context.Context, data []byte) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	if conn == nil {
		return ErrNotOpen
	}

	deadline := time.Now().Add(b.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("bridge write failed: %w", err)
	}
	return nil
}

// Events returns the current inbound event stream.
// Returns nil before the first Open.
func (b *Bridge) Events() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events
}

// readPump reads inbound frames until the connection fails or closes,
// then emits the terminal event and closes the stream.
//
// Delivery blocks when the consumer falls behind; the buffer absorbs
// bursts, so neither frames nor the terminal event are ever dropped.
func (b *Bridge) readPump(conn *websocket.Conn, events chan Event) {
	defer close(events)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.mu.Lock()
			wasLocalClose := b.closed
			b.mu.Unlock()

			switch {
			case wasLocalClose:
				events <- Event{Type: EventClose, Code: websocket.CloseNormalClosure}
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				code := websocket.CloseNormalClosure
				if ce, ok := err.(*websocket.CloseError); ok {
					code = ce.Code
				}
				events <- Event{Type: EventClose, Code: code}
			default:
				events <- Event{Type: EventError, Err: err}
			}
			return
		}

		events <- Event{Type: EventMessage, Payload: data}
	}
}

// Compile-time interface satisfaction check.
var _ Transport = (*Bridge)(nil)

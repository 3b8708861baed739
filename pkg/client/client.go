package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chatwire/chatwire-go/pkg/auth"
	"github.com/chatwire/chatwire-go/pkg/connection"
	"github.com/chatwire/chatwire-go/pkg/heartbeat"
	"github.com/chatwire/chatwire-go/pkg/log"
	"github.com/chatwire/chatwire-go/pkg/queue"
	"github.com/chatwire/chatwire-go/pkg/ratelimit"
	"github.com/chatwire/chatwire-go/pkg/session"
	"github.com/chatwire/chatwire-go/pkg/transport"
	"github.com/chatwire/chatwire-go/pkg/version"
	"github.com/chatwire/chatwire-go/pkg/wire"
)

// Message is an inbound message surfaced to the application.
type Message struct {
	// From is the sender identifier.
	From string

	// Text is the message text.
	Text string

	// Timestamp is the remote-service timestamp, when known.
	Timestamp time.Time
}

// Client is a ChatWire client bound to one bridge connection.
type Client struct {
	config Config
	logger log.Logger
	connID string

	transport    transport.Transport
	sm           *connection.StateMachine
	session      *SessionState
	store        session.Store
	limiter      *ratelimit.Limiter
	queue        *queue.Queue
	orchestrator *auth.Orchestrator
	heartbeat    *heartbeat.Monitor
	reconnector  *connection.Reconnector

	seq atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]chan *wire.Frame
	lastErr error
	readWg  sync.WaitGroup

	cbMu            sync.Mutex
	onConnected     func()
	onDisconnected  func()
	onReconnecting  func(attempt uint, delay time.Duration)
	onAuthenticated func()
	onReady         func()
	onQR            func(payload string, updated bool)
	onPairingCode   func(code string)
	onMessage       func(msg Message)
	onError         func(err error)
	onMaxAttempts   func()
}

// New creates a client. Zero config values fall back to defaults.
func New(config Config) (*Client, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:  config,
		logger:  config.Logger,
		connID:  uuid.NewString(),
		session: &SessionState{},
		pending: make(map[uint32]chan *wire.Frame),
	}

	c.sm = connection.NewStateMachine()
	c.sm.OnChange(c.handleStateChange)

	c.transport = config.Transport
	if c.transport == nil {
		c.transport = transport.NewBridge(transport.BridgeConfig{URL: config.BridgeURL})
	}

	c.store = config.Store
	if c.store == nil {
		c.store = session.NewFileStore(config.SessionDir)
	}

	c.limiter = ratelimit.NewLimiter(ratelimit.Config{
		PerMinute: config.RateLimitPerMinute,
		PerHour:   config.RateLimitPerHour,
		PerDay:    config.RateLimitPerDay,
	})

	c.queue = queue.New(c.dispatchSend)

	c.orchestrator = auth.NewOrchestratorWithConfig(prober{c}, auth.Config{
		QRPollInterval:     config.QRPollInterval,
		StatusPollInterval: config.StatusPollInterval,
		Timeout:            config.AuthTimeout,
	})
	c.orchestrator.SetOnQR(c.emitQR)
	c.orchestrator.SetOnPairingCode(c.emitPairingCode)

	c.heartbeat = heartbeat.NewMonitor(config.HeartbeatInterval, c.sendProbe, c.heartbeatStale)

	c.reconnector = connection.NewReconnector(c.sm, c.dial, connection.ReconnectorConfig{
		MaxAttempts: config.MaxReconnectAttempts,
		BaseDelay:   config.ReconnectInterval,
	})
	c.reconnector.SetEnabled(!config.DisableAutoReconnect)
	// Never retry into an unauthenticated bridge: reconnection only
	// makes sense once a session exists.
	c.reconnector.SetGate(c.session.Authenticated)
	c.reconnector.OnScheduled(func(attempt uint, delay time.Duration) {
		c.session.setReconnectAttempts(attempt)
		c.emitReconnecting(attempt, delay)
	})
	c.reconnector.OnConnected(func() {
		c.session.setReconnectAttempts(0)
		c.session.setReady(true)
	})
	c.reconnector.OnAbandoned(func() {
		// An explicit disconnect won the race against a redial that
		// was already in flight. Close the channel it opened.
		c.transport.Close()
	})
	c.reconnector.OnExhausted(func() {
		err := &ConnectionError{Subcode: SubcodeMaxAttempts}
		c.setLastError(err)
		c.emitError(err)
		c.emitMaxAttempts()
	})

	return c, nil
}

// ConnectionID returns the connection UUID used in log events.
func (c *Client) ConnectionID() string { return c.connID }

// State returns the current connection state.
func (c *Client) State() connection.State { return c.sm.State() }

// Session returns a snapshot of the session state.
func (c *Client) Session() Snapshot { return c.session.Snapshot() }

// LastError returns the last error the client observed, including
// errors handled internally by reconnection.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect opens the bridge channel and performs the session hello.
// A no-op when already connected; recovers from FAILED.
func (c *Client) Connect(ctx context.Context) error {
	if _, _, err := c.sm.Transition(connection.EventConnect, "connect requested"); err != nil {
		if c.sm.Is(connection.StateConnected) {
			c.logWarning("connect requested while already connected")
			return nil
		}
		return err
	}

	// Explicit connects reset the reconnection counter, making FAILED
	// recoverable by the caller.
	c.reconnector.Reset()

	if err := c.dial(ctx); err != nil {
		c.sm.Transition(connection.EventOpenFailed, err.Error())
		c.setLastError(err)
		return err
	}

	if old, new, err := c.sm.Transition(connection.EventOpened, "bridge channel up"); err == nil && old == new {
		c.logWarning("duplicate channel open notification")
	}
	return nil
}

// Disconnect tears the connection down. Unconditionally effective:
// it cancels any pending authentication attempt, disarms the
// heartbeat, clears any scheduled reconnection, and is idempotent.
func (c *Client) Disconnect() {
	c.orchestrator.Cancel()
	c.reconnector.Stop()

	// Transition first so the read loop treats the channel close as
	// planned; the handler emits exactly one disconnected event.
	c.sm.Transition(connection.EventDisconnect, "disconnect requested")
	c.transport.Close()
}

// Close disconnects and releases all client resources.
// The client cannot be reused afterwards.
func (c *Client) Close() {
	c.Disconnect()
	c.queue.Close()
	c.reconnector.Close()
	c.readWg.Wait()
}

// Authenticate runs the configured authentication strategy. Connects
// first when no channel is up. On success the session is persisted
// and the client becomes ready.
func (c *Client) Authenticate(ctx context.Context) error {
	if !c.sm.Is(connection.StateConnected) {
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}

	strategy, err := c.buildStrategy()
	if err != nil {
		return &AuthenticationError{Strategy: c.config.AuthStrategy, Err: err}
	}

	result, err := c.orchestrator.Authenticate(ctx, strategy)
	if err != nil {
		aerr := &AuthenticationError{Strategy: strategy.Name(), Err: err}
		c.setLastError(aerr)

		if errors.Is(err, auth.ErrAuthTimeout) {
			// The attempt window elapsed: terminal until the caller
			// explicitly reconnects.
			if _, _, terr := c.sm.Transition(connection.EventAuthFailed, "authentication timed out"); terr == nil {
				c.transport.Close()
			}
		}

		c.emitError(aerr)
		return aerr
	}

	c.session.setAuthenticated(true)
	c.persistSession(result)
	c.emitAuthenticated()

	c.session.setReady(true)
	c.emitReady()
	return nil
}

// SendText sends a text message. It blocks until the bridge accepts
// or rejects the frame; remote delivery is not awaited.
func (c *Client) SendText(ctx context.Context, target, text string) error {
	if target == "" {
		return &MessageError{Target: target, Reason: "empty target"}
	}
	if text == "" {
		return &MessageError{Target: target, Reason: "empty message text"}
	}
	if !c.sm.Is(connection.StateConnected) {
		return &ConnectionError{Subcode: SubcodeNotConnected}
	}

	if err := c.limiter.Check(target, "send"); err != nil {
		c.setLastError(err)
		return err
	}

	body, err := wire.Marshal(wire.SendBody{
		Target:   target,
		ClientID: uuid.NewString(),
		Text:     text,
	})
	if err != nil {
		return &MessageError{Target: target, Reason: "encode failed", Err: err}
	}

	err = c.queue.Enqueue(ctx, &queue.Send{Target: target, Payload: body})
	if err == nil {
		return nil
	}

	var merr *MessageError
	switch {
	case errors.As(err, &merr):
		c.setLastError(err)
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		wrapped := &MessageError{Target: target, Reason: "send failed", Err: err}
		c.setLastError(wrapped)
		return wrapped
	}
}

// buildStrategy maps the configured strategy name to an auth.Strategy.
func (c *Client) buildStrategy() (auth.Strategy, error) {
	switch c.config.AuthStrategy {
	case StrategyQR:
		return &auth.QRStrategy{}, nil
	case StrategyPairing:
		return &auth.PairingCodeStrategy{PhoneNumber: c.config.PhoneNumber}, nil
	case StrategySessionRestore:
		return &auth.SessionRestoreStrategy{
			Store:       c.store,
			SessionName: c.config.SessionName,
		}, nil
	default:
		return nil, fmt.Errorf("unknown auth strategy %q", c.config.AuthStrategy)
	}
}

// dial opens the transport, starts the read loop, and performs the
// session hello. Also used by the reconnector.
func (c *Client) dial(ctx context.Context) error {
	if err := c.transport.Open(ctx); err != nil {
		return &ConnectionError{Subcode: SubcodeDialFailed, Err: err}
	}

	events := c.transport.Events()
	c.readWg.Add(1)
	go c.readLoop(events)

	if err := c.hello(ctx); err != nil {
		c.transport.Close()
		return err
	}
	return nil
}

// hello announces the session to the bridge. An authenticated session
// presents its derived key so the bridge restores it.
func (c *Client) hello(ctx context.Context) error {
	body := wire.HelloBody{
		SessionName:   c.config.SessionName,
		ClientVersion: version.Library,
	}
	if c.session.Authenticated() {
		if state, err := c.store.Load(c.config.SessionName); err == nil && state != nil {
			if key, err := session.DeriveKey(state); err == nil {
				body.SessionKey = key
			}
		}
	}

	frame, err := c.request(ctx, wire.KindHello, body, wire.KindHelloAck)
	if err != nil {
		return &ConnectionError{Subcode: SubcodeChannelError, Err: err}
	}

	var ack wire.HelloAckBody
	if err := frame.DecodeBody(&ack); err != nil {
		return &ConnectionError{Subcode: SubcodeChannelError, Err: err}
	}
	if !ack.Accepted {
		return &ConnectionError{
			Subcode: SubcodeHelloRejected,
			Err:     fmt.Errorf("bridge refused session: %s", ack.Reason),
		}
	}
	return nil
}

// request sends a frame and waits for the correlated reply.
func (c *Client) request(ctx context.Context, kind wire.Kind, body any, want wire.Kind) (*wire.Frame, error) {
	seq := c.seq.Add(1)
	data, err := wire.EncodeFrame(kind, seq, body)
	if err != nil {
		return nil, err
	}

	ch := make(chan *wire.Frame, 1)
	c.mu.Lock()
	c.pending[seq] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
	}()

	c.logMessage(log.DirectionOut, kind, seq, "", nil)
	if err := c.transport.Send(ctx, data); err != nil {
		return nil, err
	}

	select {
	case frame, ok := <-ch:
		if !ok {
			return nil, &ConnectionError{Subcode: SubcodeChannelError, Err: errors.New("bridge channel closed")}
		}
		if frame.Kind != want {
			return nil, fmt.Errorf("unexpected reply kind %s, want %s", frame.Kind, want)
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// readLoop consumes transport events until the channel closes.
func (c *Client) readLoop(events <-chan transport.Event) {
	defer c.readWg.Done()

	for ev := range events {
		switch ev.Type {
		case transport.EventOpen:
			// Channel up; the dial path drives the state machine.
		case transport.EventMessage:
			c.handleFrame(ev.Payload)
		case transport.EventClose:
			c.channelLost("bridge channel closed", nil)
		case transport.EventError:
			c.channelLost("bridge channel error", ev.Err)
		}
	}

	// A stream that ends without a terminal event still means the
	// channel is gone. No-op when the close was already handled.
	c.channelLost("bridge channel ended", nil)
	c.failPending()
}

// channelLost reacts to an unplanned channel termination. Planned
// closes (explicit disconnect, failed dial) already moved the machine
// away from CONNECTED, making this a no-op.
func (c *Client) channelLost(reason string, err error) {
	if err != nil {
		cerr := &ConnectionError{Subcode: SubcodeChannelError, Err: err}
		c.setLastError(cerr)
		c.emitError(cerr)
	}

	if _, _, terr := c.sm.Transition(connection.EventClosed, reason); terr != nil {
		return
	}
	c.reconnector.ConnectionLost()
}

// failPending unblocks request waiters after the channel closed.
func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
}

// handleFrame decodes and dispatches one inbound frame.
func (c *Client) handleFrame(data []byte) {
	frame, err := wire.DecodeFrame(data)
	if err != nil {
		c.logError(log.LayerWire, err, "decode inbound frame")
		return
	}
	c.logMessage(log.DirectionIn, frame.Kind, frame.Seq, "", nil)

	// Correlated reply to an in-flight request
	if frame.Seq != 0 {
		c.mu.Lock()
		ch, ok := c.pending[frame.Seq]
		if ok {
			delete(c.pending, frame.Seq)
		}
		c.mu.Unlock()
		if ok {
			ch <- frame
			return
		}
	}

	switch frame.Kind {
	case wire.KindProbeAck:
		c.heartbeat.Ack()
		c.session.setLastHeartbeat(time.Now())
		c.logControl(log.DirectionIn, log.ControlMsgProbeAck, nil)

	case wire.KindProbe:
		c.logControl(log.DirectionIn, log.ControlMsgProbe, nil)
		if data, err := wire.EncodeFrame(wire.KindProbeAck, frame.Seq, nil); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.transport.Send(ctx, data)
			cancel()
		}

	case wire.KindMessage:
		var body wire.MessageBody
		if err := frame.DecodeBody(&body); err != nil {
			c.logError(log.LayerWire, err, "decode message body")
			return
		}
		msg := Message{From: body.From, Text: body.Text}
		if body.Timestamp != 0 {
			msg.Timestamp = time.UnixMilli(body.Timestamp)
		}
		c.emitMessage(msg)

	case wire.KindClose:
		var body wire.CloseBody
		if err := frame.DecodeBody(&body); err == nil {
			code := body.Code
			c.logControl(log.DirectionIn, log.ControlMsgClose, &code)
		}
		// The transport emits the terminal close event next.
	}
}

// dispatchSend is the queue's sender: one send frame, one ack.
func (c *Client) dispatchSend(ctx context.Context, s *queue.Send) error {
	frame, err := c.request(ctx, wire.KindSend, cbor.RawMessage(s.Payload), wire.KindSendAck)
	if err != nil {
		return &MessageError{Target: s.Target, Reason: "bridge send failed", Err: err}
	}

	var ack wire.SendAckBody
	if err := frame.DecodeBody(&ack); err != nil {
		return &MessageError{Target: s.Target, Reason: "malformed send ack", Err: err}
	}
	if !ack.Accepted {
		reason := ack.Reason
		if reason == "" {
			reason = "rejected by bridge"
		}
		return &MessageError{Target: s.Target, Reason: reason}
	}
	return nil
}

// sendProbe is the heartbeat monitor's probe function.
func (c *Client) sendProbe(ctx context.Context) error {
	data, err := wire.EncodeFrame(wire.KindProbe, c.seq.Add(1), nil)
	if err != nil {
		return err
	}
	c.logControl(log.DirectionOut, log.ControlMsgProbe, nil)
	return c.transport.Send(ctx, data)
}

// heartbeatStale reacts to the watchdog declaring the connection
// stale. Staleness feeds reconnection, never the caller.
func (c *Client) heartbeatStale() {
	err := &ConnectionError{Subcode: SubcodeHeartbeatStale}
	c.setLastError(err)
	c.emitError(err)

	// Transition first so the read loop sees a planned close.
	if _, _, terr := c.sm.Transition(connection.EventClosed, "heartbeat stale"); terr != nil {
		return
	}
	c.transport.Close()
	c.reconnector.ConnectionLost()
}

// handleStateChange reacts to connection state transitions.
func (c *Client) handleStateChange(old, new connection.State, reason string) {
	c.logStateChange(old, new, reason)

	if new == connection.StateConnected {
		c.heartbeat.Arm()
		c.emitConnected()
	} else if old == connection.StateConnected {
		c.heartbeat.Disarm()
	}

	switch new {
	case connection.StateDisconnected:
		c.session.setReady(false)
		c.emitDisconnected()
	case connection.StateFailed:
		c.session.setReady(false)
	}
}

// persistSession stores fresh credentials after authentication.
func (c *Client) persistSession(result *auth.Result) {
	if len(result.Credentials) == 0 {
		return
	}
	state := &session.State{
		Name:            c.config.SessionName,
		Credentials:     result.Credentials,
		PhoneNumber:     c.config.PhoneNumber,
		AuthenticatedAt: time.Now(),
	}
	if err := c.store.Save(state); err != nil {
		c.logError(log.LayerClient, err, "persist session")
	}
}

func (c *Client) setLastError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

// prober adapts the client's request plumbing to auth.Prober.
type prober struct{ c *Client }

func (p prober) RequestQR(ctx context.Context) (string, error) {
	frame, err := p.c.request(ctx, wire.KindQRRequest, nil, wire.KindQR)
	if err != nil {
		return "", err
	}
	var body wire.QRBody
	if err := frame.DecodeBody(&body); err != nil {
		return "", err
	}
	return body.Payload, nil
}

func (p prober) AuthStatus(ctx context.Context) (bool, []byte, error) {
	frame, err := p.c.request(ctx, wire.KindAuthStatusRequest, nil, wire.KindAuthStatus)
	if err != nil {
		return false, nil, err
	}
	var body wire.AuthStatusBody
	if err := frame.DecodeBody(&body); err != nil {
		return false, nil, err
	}
	return body.Authenticated, body.Credentials, nil
}

func (p prober) SubmitPairingCode(ctx context.Context, phoneNumber, code string) error {
	_, err := p.c.request(ctx, wire.KindPairingRequest,
		wire.PairingRequestBody{PhoneNumber: phoneNumber, Code: code}, wire.KindAuthStatus)
	return err
}

func (p prober) RestoreSession(ctx context.Context, name string, key []byte) (bool, error) {
	frame, err := p.c.request(ctx, wire.KindHello,
		wire.HelloBody{SessionName: name, SessionKey: key, ClientVersion: version.Library},
		wire.KindHelloAck)
	if err != nil {
		return false, err
	}
	var ack wire.HelloAckBody
	if err := frame.DecodeBody(&ack); err != nil {
		return false, err
	}
	return ack.Accepted && ack.Restored, nil
}

package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chatwire/chatwire-go/pkg/log"
	"github.com/chatwire/chatwire-go/pkg/transport"
	"github.com/chatwire/chatwire-go/pkg/wire"
)

// fakeBridge is an in-memory Transport scripting the bridge side of
// the channel. Replies are injected into the event stream the way the
// real bridge's read pump would deliver them.
type fakeBridge struct {
	mu     sync.Mutex
	open   bool
	events chan transport.Event

	// Scripted behavior
	dialErr       error
	helloAccept   bool
	helloRestored bool
	helloReason   string
	qrPayload     string
	authenticated bool
	credentials   []byte
	rejectSends   string
	ignoreProbes  bool

	sent []wire.Kind
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		helloAccept: true,
		qrPayload:   "qr-payload-1",
	}
}

func (f *fakeBridge) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dialErr != nil {
		return f.dialErr
	}
	if f.open {
		return transport.ErrAlreadyOpen
	}
	f.open = true
	f.events = make(chan transport.Event, 64)
	f.events <- transport.Event{Type: transport.EventOpen}
	return nil
}

func (f *fakeBridge) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return nil
	}
	f.open = false
	f.events <- transport.Event{Type: transport.EventClose, Code: 1000}
	close(f.events)
	return nil
}

func (f *fakeBridge) Events() <-chan transport.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events
}

func (f *fakeBridge) Send(ctx context.Context, data []byte) error {
	frame, err := wire.DecodeFrame(data)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return transport.ErrNotOpen
	}
	f.sent = append(f.sent, frame.Kind)

	reply := func(kind wire.Kind, body any) {
		data, err := wire.EncodeFrame(kind, frame.Seq, body)
		if err != nil {
			return
		}
		f.events <- transport.Event{Type: transport.EventMessage, Payload: data}
	}

	switch frame.Kind {
	case wire.KindHello:
		var body wire.HelloBody
		_ = frame.DecodeBody(&body)
		restored := f.helloRestored && len(body.SessionKey) > 0
		reply(wire.KindHelloAck, wire.HelloAckBody{
			Accepted: f.helloAccept,
			Restored: restored,
			Reason:   f.helloReason,
		})

	case wire.KindProbe:
		if !f.ignoreProbes {
			reply(wire.KindProbeAck, nil)
		}

	case wire.KindQRRequest:
		reply(wire.KindQR, wire.QRBody{Payload: f.qrPayload})

	case wire.KindAuthStatusRequest, wire.KindPairingRequest:
		reply(wire.KindAuthStatus, wire.AuthStatusBody{
			Authenticated: f.authenticated,
			Credentials:   f.credentials,
		})

	case wire.KindSend:
		var body wire.SendBody
		_ = frame.DecodeBody(&body)
		reply(wire.KindSendAck, wire.SendAckBody{
			ClientID: body.ClientID,
			Accepted: f.rejectSends == "",
			Reason:   f.rejectSends,
		})
	}
	return nil
}

// pushMessage injects an unsolicited inbound message.
func (f *fakeBridge) pushMessage(from, text string) {
	data, err := wire.EncodeFrame(wire.KindMessage, 0, wire.MessageBody{
		From:      from,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		f.events <- transport.Event{Type: transport.EventMessage, Payload: data}
	}
}

// vanish ends the event stream without a terminal close or error
// event, the way a crashed read pump would.
func (f *fakeBridge) vanish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return
	}
	f.open = false
	close(f.events)
}

// drop simulates an unplanned channel failure.
func (f *fakeBridge) drop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return
	}
	f.open = false
	f.events <- transport.Event{Type: transport.EventError, Err: errors.New("connection reset")}
	close(f.events)
}

func (f *fakeBridge) setDialErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialErr = err
}

func (f *fakeBridge) setAuthenticated(credentials []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = true
	f.credentials = credentials
}

func (f *fakeBridge) sentKinds() []wire.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]wire.Kind, len(f.sent))
	copy(kinds, f.sent)
	return kinds
}

// Compile-time interface satisfaction check.
var _ transport.Transport = (*fakeBridge)(nil)

// recordingLogger captures client log events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// warnings counts recorded warning events.
func (r *recordingLogger) warnings() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, event := range r.events {
		if event.Error != nil && event.Error.Context == "warning" {
			n++
		}
	}
	return n
}

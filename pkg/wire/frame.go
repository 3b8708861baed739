package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR map keys for the frame envelope.
const (
	KeyKind = 1
	KeySeq  = 2
	KeyBody = 3
)

// Kind identifies the frame type on the bridge channel.
type Kind uint8

const (
	// KindHello opens a session with the bridge after the channel is up.
	// Carries the session name and, for restores, the derived session key.
	KindHello Kind = 1

	// KindHelloAck confirms the hello. Body reports whether the bridge
	// accepted the presented session.
	KindHelloAck Kind = 2

	// KindProbe is a liveness probe from client to bridge.
	KindProbe Kind = 3

	// KindProbeAck acknowledges a probe.
	KindProbeAck Kind = 4

	// KindQRRequest asks the bridge for the current QR pairing payload.
	KindQRRequest Kind = 5

	// KindQR carries a QR pairing payload from the bridge.
	KindQR Kind = 6

	// KindAuthStatusRequest asks the bridge whether the remote service
	// has accepted the pairing.
	KindAuthStatusRequest Kind = 7

	// KindAuthStatus reports the authentication state.
	KindAuthStatus Kind = 8

	// KindPairingRequest asks the bridge to start a pairing-code round
	// for a phone number with a client-generated code.
	KindPairingRequest Kind = 9

	// KindSend carries an outbound message.
	KindSend Kind = 10

	// KindSendAck confirms the bridge accepted an outbound message.
	KindSendAck Kind = 11

	// KindMessage carries an inbound message from the remote service.
	KindMessage Kind = 12

	// KindClose announces an orderly channel shutdown.
	KindClose Kind = 13
)

// String returns the frame kind name.
func (k Kind) String() string {
	switch k {
	case KindHello:
		return "HELLO"
	case KindHelloAck:
		return "HELLO_ACK"
	case KindProbe:
		return "PROBE"
	case KindProbeAck:
		return "PROBE_ACK"
	case KindQRRequest:
		return "QR_REQUEST"
	case KindQR:
		return "QR"
	case KindAuthStatusRequest:
		return "AUTH_STATUS_REQUEST"
	case KindAuthStatus:
		return "AUTH_STATUS"
	case KindPairingRequest:
		return "PAIRING_REQUEST"
	case KindSend:
		return "SEND"
	case KindSendAck:
		return "SEND_ACK"
	case KindMessage:
		return "MESSAGE"
	case KindClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether the kind is a known frame kind.
func (k Kind) IsValid() bool {
	return k >= KindHello && k <= KindClose
}

// Frame is the envelope for all traffic on the bridge channel.
//
// Seq correlates request/response pairs; unsolicited frames (inbound
// messages, pushed QR updates) use Seq 0.
type Frame struct {
	Kind Kind            `cbor:"1,keyasint"`
	Seq  uint32          `cbor:"2,keyasint,omitempty"`
	Body cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}

// Validate checks the envelope fields.
func (f *Frame) Validate() error {
	if !f.Kind.IsValid() {
		return fmt.Errorf("invalid frame kind: %d", f.Kind)
	}
	return nil
}

// HelloBody opens or restores a bridge session.
type HelloBody struct {
	// SessionName identifies the persisted session on the bridge side.
	SessionName string `cbor:"1,keyasint"`

	// SessionKey is the HKDF-derived restore key. Empty for fresh sessions.
	SessionKey []byte `cbor:"2,keyasint,omitempty"`

	// ClientVersion is the library version, for bridge-side diagnostics.
	ClientVersion string `cbor:"3,keyasint,omitempty"`
}

// HelloAckBody reports the outcome of a hello.
type HelloAckBody struct {
	// Accepted is true when the bridge accepted the session.
	Accepted bool `cbor:"1,keyasint"`

	// Restored is true when a persisted session was resumed.
	Restored bool `cbor:"2,keyasint,omitempty"`

	// Reason explains a rejection.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// QRBody carries a QR pairing payload.
type QRBody struct {
	// Payload is the opaque QR payload to render for the user.
	Payload string `cbor:"1,keyasint"`
}

// AuthStatusBody reports the remote authentication state.
type AuthStatusBody struct {
	// Authenticated is true once the remote service accepted the pairing.
	Authenticated bool `cbor:"1,keyasint"`

	// Credentials is the opaque session material to persist. Only set
	// when Authenticated is true.
	Credentials []byte `cbor:"2,keyasint,omitempty"`
}

// PairingRequestBody starts a pairing-code round.
type PairingRequestBody struct {
	// PhoneNumber is the account identifier to pair with.
	PhoneNumber string `cbor:"1,keyasint"`

	// Code is the client-generated pairing code the user must enter.
	Code string `cbor:"2,keyasint"`
}

// SendBody carries an outbound message.
type SendBody struct {
	// Target is the destination identifier.
	Target string `cbor:"1,keyasint"`

	// ClientID correlates the ack with the originating send call (UUID).
	ClientID string `cbor:"2,keyasint"`

	// Text is the message text.
	Text string `cbor:"3,keyasint"`
}

// SendAckBody confirms or rejects an outbound message.
type SendAckBody struct {
	// ClientID echoes SendBody.ClientID.
	ClientID string `cbor:"1,keyasint"`

	// Accepted is true when the bridge accepted the message for delivery.
	Accepted bool `cbor:"2,keyasint"`

	// Reason explains a rejection.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// MessageBody carries an inbound message.
type MessageBody struct {
	// From is the sender identifier.
	From string `cbor:"1,keyasint"`

	// Text is the message text.
	Text string `cbor:"2,keyasint"`

	// Timestamp is the remote-service timestamp, Unix milliseconds.
	Timestamp int64 `cbor:"3,keyasint,omitempty"`
}

// CloseBody announces an orderly shutdown.
type CloseBody struct {
	// Code is a machine-readable close code.
	Code uint8 `cbor:"1,keyasint"`

	// Reason is a human-readable close reason.
	Reason string `cbor:"2,keyasint,omitempty"`
}

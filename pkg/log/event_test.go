package log

import (
	"testing"
	"time"

	"github.com/chatwire/chatwire-go/pkg/wire"
)

func TestEnumStrings(t *testing.T) {
	t.Run("Direction", func(t *testing.T) {
		tests := []struct {
			val  Direction
			want string
		}{
			{DirectionIn, "IN"},
			{DirectionOut, "OUT"},
			{Direction(9), "UNKNOWN"},
		}
		for _, tt := range tests {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("Direction(%d).String() = %q, want %q", tt.val, got, tt.want)
			}
		}
	})

	t.Run("Layer", func(t *testing.T) {
		tests := []struct {
			val  Layer
			want string
		}{
			{LayerTransport, "TRANSPORT"},
			{LayerWire, "WIRE"},
			{LayerClient, "CLIENT"},
			{Layer(9), "UNKNOWN"},
		}
		for _, tt := range tests {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("Layer(%d).String() = %q, want %q", tt.val, got, tt.want)
			}
		}
	})

	t.Run("Category", func(t *testing.T) {
		tests := []struct {
			val  Category
			want string
		}{
			{CategoryMessage, "MESSAGE"},
			{CategoryControl, "CONTROL"},
			{CategoryState, "STATE"},
			{CategoryError, "ERROR"},
			{Category(9), "UNKNOWN"},
		}
		for _, tt := range tests {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("Category(%d).String() = %q, want %q", tt.val, got, tt.want)
			}
		}
	})

	t.Run("StateEntity", func(t *testing.T) {
		tests := []struct {
			val  StateEntity
			want string
		}{
			{StateEntityConnection, "CONNECTION"},
			{StateEntitySession, "SESSION"},
			{StateEntityAuth, "AUTH"},
			{StateEntity(9), "UNKNOWN"},
		}
		for _, tt := range tests {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("StateEntity(%d).String() = %q, want %q", tt.val, got, tt.want)
			}
		}
	})

	t.Run("ControlMsgType", func(t *testing.T) {
		tests := []struct {
			val  ControlMsgType
			want string
		}{
			{ControlMsgProbe, "PROBE"},
			{ControlMsgProbeAck, "PROBE_ACK"},
			{ControlMsgClose, "CLOSE"},
			{ControlMsgType(9), "UNKNOWN"},
		}
		for _, tt := range tests {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("ControlMsgType(%d).String() = %q, want %q", tt.val, got, tt.want)
			}
		}
	})
}

func TestEncodeDecodeEvent(t *testing.T) {
	accepted := true
	event := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "11111111-2222-3333-4444-555555555555",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		SessionName:  "default",
		Target:       "user@remote",
		Message: &MessageEvent{
			Kind:     wire.KindSendAck,
			Seq:      42,
			ClientID: "abc",
			Accepted: &accepted,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if decoded.ConnectionID != event.ConnectionID {
		t.Errorf("ConnectionID = %q, want %q", decoded.ConnectionID, event.ConnectionID)
	}
	if decoded.SessionName != "default" || decoded.Target != "user@remote" {
		t.Errorf("identifiers = %q/%q", decoded.SessionName, decoded.Target)
	}
	if decoded.Message == nil {
		t.Fatal("Message payload lost in roundtrip")
	}
	if decoded.Message.Kind != wire.KindSendAck || decoded.Message.Seq != 42 {
		t.Errorf("Message = %+v", decoded.Message)
	}
	if decoded.Message.Accepted == nil || !*decoded.Message.Accepted {
		t.Error("Accepted flag lost in roundtrip")
	}
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, event.Timestamp)
	}
}

func TestEncodeStateChangeEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerClient,
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityConnection,
			OldState: "CONNECTING",
			NewState: "CONNECTED",
			Reason:   "bridge channel open",
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if decoded.StateChange == nil {
		t.Fatal("StateChange payload lost in roundtrip")
	}
	if decoded.StateChange.NewState != "CONNECTED" || decoded.StateChange.Reason != "bridge channel open" {
		t.Errorf("StateChange = %+v", decoded.StateChange)
	}
}

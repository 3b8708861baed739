package wire

import (
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindHello, "HELLO"},
		{KindHelloAck, "HELLO_ACK"},
		{KindProbe, "PROBE"},
		{KindProbeAck, "PROBE_ACK"},
		{KindQRRequest, "QR_REQUEST"},
		{KindQR, "QR"},
		{KindAuthStatusRequest, "AUTH_STATUS_REQUEST"},
		{KindAuthStatus, "AUTH_STATUS"},
		{KindPairingRequest, "PAIRING_REQUEST"},
		{KindSend, "SEND"},
		{KindSendAck, "SEND_ACK"},
		{KindMessage, "MESSAGE"},
		{KindClose, "CLOSE"},
		{Kind(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeFrame(t *testing.T) {
	t.Run("SendWithBody", func(t *testing.T) {
		data, err := EncodeFrame(KindSend, 7, &SendBody{
			Target:   "user@remote",
			ClientID: "c0ffee",
			Text:     "hello",
		})
		if err != nil {
			t.Fatalf("EncodeFrame() error = %v", err)
		}

		f, err := DecodeFrame(data)
		if err != nil {
			t.Fatalf("DecodeFrame() error = %v", err)
		}
		if f.Kind != KindSend {
			t.Errorf("Kind = %v, want KindSend", f.Kind)
		}
		if f.Seq != 7 {
			t.Errorf("Seq = %d, want 7", f.Seq)
		}

		var body SendBody
		if err := f.DecodeBody(&body); err != nil {
			t.Fatalf("DecodeBody() error = %v", err)
		}
		if body.Target != "user@remote" || body.Text != "hello" || body.ClientID != "c0ffee" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("ProbeWithoutBody", func(t *testing.T) {
		data, err := EncodeFrame(KindProbe, 3, nil)
		if err != nil {
			t.Fatalf("EncodeFrame() error = %v", err)
		}

		f, err := DecodeFrame(data)
		if err != nil {
			t.Fatalf("DecodeFrame() error = %v", err)
		}
		if f.Kind != KindProbe || f.Seq != 3 {
			t.Errorf("frame = %+v", f)
		}
		if len(f.Body) != 0 {
			t.Errorf("Body = %v, want empty", f.Body)
		}

		var body SendBody
		if err := f.DecodeBody(&body); err == nil {
			t.Error("DecodeBody() on empty body should fail")
		}
	})

	t.Run("InvalidKind", func(t *testing.T) {
		if _, err := EncodeFrame(Kind(0), 1, nil); err == nil {
			t.Error("EncodeFrame() with kind 0 should fail")
		}
		if _, err := EncodeFrame(Kind(200), 1, nil); err == nil {
			t.Error("EncodeFrame() with kind 200 should fail")
		}
	})

	t.Run("GarbageInput", func(t *testing.T) {
		if _, err := DecodeFrame([]byte{0xff, 0x00, 0x12}); err == nil {
			t.Error("DecodeFrame() on garbage should fail")
		}
	})
}

func TestFrameDeterministicEncoding(t *testing.T) {
	body := &AuthStatusBody{Authenticated: true, Credentials: []byte{1, 2, 3}}

	a, err := EncodeFrame(KindAuthStatus, 9, body)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	b, err := EncodeFrame(KindAuthStatus, 9, body)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	if string(a) != string(b) {
		t.Error("identical frames encoded to different bytes")
	}
}

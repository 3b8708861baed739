package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SessionKeySize is the size of the derived session key in bytes.
const SessionKeySize = 32

// keyInfo binds derived keys to their purpose and format version.
var keyInfo = []byte("chatwire session v1")

// ErrNoCredentials is returned when deriving a key from state without
// stored credentials.
var ErrNoCredentials = errors.New("session has no stored credentials")

// DeriveKey derives the session key presented to the bridge during a
// restore handshake. The key is derived with HKDF-SHA256 from the
// stored credential blob, salted with the session name, so the same
// credentials yield distinct keys per session.
func DeriveKey(state *State) ([]byte, error) {
	if state == nil || len(state.Credentials) == 0 {
		return nil, ErrNoCredentials
	}

	reader := hkdf.New(sha256.New, state.Credentials, []byte(state.Name), keyInfo)

	key := make([]byte, SessionKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return key, nil
}

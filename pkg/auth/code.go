package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Pairing code constants.
const (
	// PairingCodeLength is the number of characters in a pairing code.
	PairingCodeLength = 8
)

// pairingCodeAlphabet excludes characters that read ambiguously on a
// phone screen (0/O, 1/I).
const pairingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ErrInvalidPairingCode is returned for malformed pairing codes.
var ErrInvalidPairingCode = errors.New("invalid pairing code")

// PairingCode is a short alphanumeric code typed into the phone to
// link it with this client.
type PairingCode string

// GeneratePairingCode generates a cryptographically random pairing code.
func GeneratePairingCode() (PairingCode, error) {
	max := big.NewInt(int64(len(pairingCodeAlphabet)))

	var b strings.Builder
	for i := 0; i < PairingCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random pairing code: %w", err)
		}
		b.WriteByte(pairingCodeAlphabet[n.Int64()])
	}
	return PairingCode(b.String()), nil
}

// ParsePairingCode normalizes and validates a user-entered code.
// Lowercase input and an optional hyphen between the halves are
// accepted.
func ParsePairingCode(s string) (PairingCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")

	if len(s) != PairingCodeLength {
		return "", fmt.Errorf("%w: must be %d characters", ErrInvalidPairingCode, PairingCodeLength)
	}
	for _, r := range s {
		if !strings.ContainsRune(pairingCodeAlphabet, r) {
			return "", fmt.Errorf("%w: character %q not allowed", ErrInvalidPairingCode, r)
		}
	}
	return PairingCode(s), nil
}

// String returns the raw code.
func (c PairingCode) String() string {
	return string(c)
}

// Display returns the code split into two halves for readability,
// e.g. "ABCD-EFGH".
func (c PairingCode) Display() string {
	if len(c) != PairingCodeLength {
		return string(c)
	}
	return string(c[:PairingCodeLength/2]) + "-" + string(c[PairingCodeLength/2:])
}

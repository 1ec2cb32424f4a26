package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyBytes is the size of a session key.
const KeyBytes = chacha20poly1305.KeySize

// ErrInvalidKey is returned by ParseKey for malformed key text.
var ErrInvalidKey = errors.New("invalid secret key")

// Key is the shared session secret. It is held by every client and never
// transmitted or given to the relay.
type Key [KeyBytes]byte

// GenerateKey returns a fresh random key.
func GenerateKey() Key {
	var k Key
	// crypto/rand.Read never fails and always fills the buffer.
	_, _ = rand.Read(k[:])
	return k
}

// String returns the key in its shareable text form (padded base64url).
func (k Key) String() string { return base64.URLEncoding.EncodeToString(k[:]) }

// ParseKey decodes a key from its text form. Surrounding whitespace is
// ignored; standard and URL alphabets are both accepted.
func ParseKey(s string) (Key, error) {
	var k Key
	s = strings.TrimSpace(s)
	if s == "" {
		return k, ErrInvalidKey
	}
	raw, err := decodeKeyText(s)
	if err != nil {
		return k, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer Wipe(raw)
	if len(raw) != KeyBytes {
		return k, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(raw), KeyBytes)
	}
	copy(k[:], raw)
	return k, nil
}

func decodeKeyText(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	return nil, errors.New("not base64")
}

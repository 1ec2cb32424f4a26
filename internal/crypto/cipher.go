package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"wisper/internal/domain"
)

const (
	tokenVersion byte = 0x01

	nonceBytes = chacha20poly1305.NonceSizeX
	overhead   = chacha20poly1305.Overhead

	// minSealed is the raw length of a token with an empty plaintext.
	minSealed = 1 + nonceBytes + overhead
)

var tokenEncoding = base64.RawURLEncoding

// Cipher seals and opens chat payloads under one session key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher for k.
func NewCipher(k Key) (*Cipher, error) {
	aead, err := chacha20poly1305.NewX(k[:])
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext into a self-describing text token.
func (c *Cipher) Encrypt(plaintext []byte) []byte {
	raw := make([]byte, 1+nonceBytes, minSealed+len(plaintext))
	raw[0] = tokenVersion
	_, _ = rand.Read(raw[1:])
	raw = c.aead.Seal(raw, raw[1:1+nonceBytes], plaintext, raw[:1])

	out := make([]byte, tokenEncoding.EncodedLen(len(raw)))
	tokenEncoding.Encode(out, raw)
	return out
}

// Decrypt opens a token produced by Encrypt under the same key.
func (c *Cipher) Decrypt(token []byte) ([]byte, error) {
	raw, err := unseal(token)
	if err != nil {
		return nil, err
	}
	pt, err := c.aead.Open(nil, raw[1:1+nonceBytes], raw[1+nonceBytes:], raw[:1])
	if err != nil {
		return nil, fmt.Errorf("open token: %w", domain.ErrInvalidCiphertext)
	}
	return pt, nil
}

// IsEncrypted reports whether Decrypt would succeed. This doubles as an
// authenticity check: plaintext can never be mistaken for a chat message.
func (c *Cipher) IsEncrypted(payload []byte) bool {
	_, err := c.Decrypt(payload)
	return err == nil
}

// LooksSealed reports whether payload is structurally a token, whatever key
// sealed it.
func (c *Cipher) LooksSealed(payload []byte) bool {
	_, err := unseal(payload)
	return err == nil
}

func unseal(token []byte) ([]byte, error) {
	if tokenEncoding.DecodedLen(len(token)) < minSealed {
		return nil, fmt.Errorf("token too short: %w", domain.ErrInvalidCiphertext)
	}
	raw := make([]byte, tokenEncoding.DecodedLen(len(token)))
	n, err := tokenEncoding.Decode(raw, token)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", domain.ErrInvalidCiphertext)
	}
	raw = raw[:n]
	if n < minSealed {
		return nil, fmt.Errorf("token too short: %w", domain.ErrInvalidCiphertext)
	}
	if raw[0] != tokenVersion {
		return nil, fmt.Errorf("token version %#x: %w", raw[0], domain.ErrInvalidCiphertext)
	}
	return raw, nil
}

var (
	_ domain.Cipher         = (*Cipher)(nil)
	_ domain.SealedDetector = (*Cipher)(nil)
)

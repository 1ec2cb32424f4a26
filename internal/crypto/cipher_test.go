package crypto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"wisper/internal/crypto"
	"wisper/internal/domain"
)

func newCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.NewCipher(crypto.GenerateKey())
	require.NoError(t, err)
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newCipher(t)
	for _, pt := range [][]byte{
		{},
		[]byte("hi"),
		[]byte("line one\nline two\n"),
		bytes.Repeat([]byte{0xff}, 4096),
	} {
		token := c.Encrypt(pt)
		require.True(t, c.IsEncrypted(token))
		require.True(t, c.LooksSealed(token))
		require.NotContains(t, string(token), "\n")

		got, err := c.Decrypt(token)
		require.NoError(t, err)
		require.Equal(t, pt, got)
	}
}

func TestCipher_FreshNoncePerToken(t *testing.T) {
	c := newCipher(t)
	a := c.Encrypt([]byte("same"))
	b := c.Encrypt([]byte("same"))
	require.NotEqual(t, a, b)
}

func TestCipher_StatusLinesAreNotEncrypted(t *testing.T) {
	c := newCipher(t)
	for _, s := range []string{
		"",
		"Peer connected",
		"Number of connected peers: 2",
		"Message not delivered... Waiting for peers to connect",
		"AQ",
	} {
		require.False(t, c.IsEncrypted([]byte(s)), s)
		require.False(t, c.LooksSealed([]byte(s)), s)
		_, err := c.Decrypt([]byte(s))
		require.ErrorIs(t, err, domain.ErrInvalidCiphertext)
	}
}

func TestCipher_KeyMismatch(t *testing.T) {
	alice := newCipher(t)
	mallory := newCipher(t)

	token := alice.Encrypt([]byte("secret"))
	require.False(t, mallory.IsEncrypted(token))
	require.True(t, mallory.LooksSealed(token))

	_, err := mallory.Decrypt(token)
	require.ErrorIs(t, err, domain.ErrInvalidCiphertext)
}

func TestCipher_Tampered(t *testing.T) {
	c := newCipher(t)
	token := c.Encrypt([]byte("hello"))

	flipped := append([]byte(nil), token...)
	last := len(flipped) - 2
	if flipped[last] == 'A' {
		flipped[last] = 'B'
	} else {
		flipped[last] = 'A'
	}
	require.False(t, c.IsEncrypted(flipped))

	require.False(t, c.IsEncrypted(token[:len(token)-4]))
}

func TestParseKey(t *testing.T) {
	k := crypto.GenerateKey()

	got, err := crypto.ParseKey("  " + k.String() + "\n")
	require.NoError(t, err)
	require.Equal(t, k, got)

	_, err = crypto.ParseKey("")
	require.ErrorIs(t, err, crypto.ErrInvalidKey)
	_, err = crypto.ParseKey("not a key!")
	require.ErrorIs(t, err, crypto.ErrInvalidKey)
	_, err = crypto.ParseKey("AAAA")
	require.ErrorIs(t, err, crypto.ErrInvalidKey)
}

func TestFingerprint(t *testing.T) {
	k := crypto.GenerateKey()
	fp := crypto.Fingerprint(k)
	require.Len(t, fp, 24)
	require.Equal(t, fp, crypto.Fingerprint(k))
	require.NotEqual(t, fp, crypto.Fingerprint(crypto.GenerateKey()))
}

func TestWipeKey(t *testing.T) {
	k := crypto.GenerateKey()
	crypto.WipeKey(&k)
	require.Equal(t, crypto.Key{}, k)
}

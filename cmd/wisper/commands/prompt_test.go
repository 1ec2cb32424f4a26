package commands

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wisper/internal/crypto"
)

func TestPrompter_SecretKeyRetries(t *testing.T) {
	key := crypto.GenerateKey()
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("not-a-key\n"+key.String()+"\n"), &out)

	got, err := p.secretKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, key, got)
	require.Contains(t, out.String(), "Invalid key")
	require.Contains(t, out.String(), "Key accepted")
}

func TestPrompter_Alias(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("bad alias\nbob7\n"), &out)

	a, err := p.alias(context.Background())
	require.NoError(t, err)
	require.Equal(t, "bob7", a)
	require.Contains(t, out.String(), "Alias must only contain alphanumeric characters")
}

func TestPrompter_OfferNewKey(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("maybe\nY\n"), &out)
	require.NoError(t, p.offerNewKey(context.Background()))
	require.Equal(t, 2, strings.Count(out.String(), "Need a new key? (y/n)"))
	require.Contains(t, out.String(), "New secret key: ")

	out.Reset()
	p = newPrompter(strings.NewReader("n\n"), &out)
	require.NoError(t, p.offerNewKey(context.Background()))
	require.NotContains(t, out.String(), "New secret key")
}

func TestPrompter_PassphraseConfirm(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("\none\ntwo\nsecret\nsecret\n"), &out)

	pass, err := p.passphrase(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, "secret", pass)
	require.Contains(t, out.String(), "Passphrase must not be empty")
	require.Contains(t, out.String(), "Passphrases do not match")
}

func TestPrompter_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newPrompter(pr, io.Discard).alias(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPrompter_EOF(t *testing.T) {
	_, err := newPrompter(strings.NewReader(""), io.Discard).secretKey(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"wisper/internal/crypto"
)

const (
	// The current supported version of the encrypted key file format.
	keyringFormatVersion = 1

	saltBytes = 16
)

var keyringAD = []byte("wisper keyring v1")

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// key file has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")

// envelope is the on-disk JSON structure holding the sealed key and the KDF
// parameters needed to open it.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// kdfParams are the scrypt cost parameters.
type kdfParams struct {
	N, R, P int
}

// Tunables for scrypt key derivation.
func defaultKDFParams() kdfParams { return kdfParams{N: 1 << 15, R: 8, P: 1} }

func deriveKey(passphrase string, salt []byte, p kdfParams) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, chacha20poly1305.KeySize)
}

// seal derives a wrapping key from passphrase and seals raw into a JSON
// envelope.
func seal(passphrase string, raw []byte, p kdfParams) ([]byte, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	wk, err := deriveKey(passphrase, salt, p)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(wk)

	aead, err := chacha20poly1305.NewX(wk)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return json.Marshal(envelope{
		V:      keyringFormatVersion,
		Salt:   salt,
		N:      p.N,
		R:      p.R,
		P:      p.P,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, raw, keyringAD),
	})
}

// open unseals a JSON envelope using a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	if env.V != keyringFormatVersion {
		return nil, fmt.Errorf("unsupported key file version %d", env.V)
	}

	wk, err := deriveKey(passphrase, env.Salt, kdfParams{N: env.N, R: env.R, P: env.P})
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(wk)

	aead, err := chacha20poly1305.NewX(wk)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, env.Nonce, env.Cipher, keyringAD)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

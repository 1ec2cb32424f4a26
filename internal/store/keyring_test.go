package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wisper/internal/crypto"
)

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	k := NewKeyring(filepath.Join(t.TempDir(), "nested", "key.enc"))
	// Cheap KDF for tests.
	k.params = kdfParams{N: 1 << 10, R: 8, P: 1}
	return k
}

func TestKeyring_SaveLoad_OK(t *testing.T) {
	k := newTestKeyring(t)
	key := crypto.GenerateKey()

	if k.Exists() {
		t.Fatal("fresh keyring should be empty")
	}
	if err := k.Save("pass", key); err != nil {
		t.Fatalf("save key: %v", err)
	}
	if !k.Exists() {
		t.Fatal("key file not written")
	}

	got, err := k.Load("pass")
	if err != nil {
		t.Fatalf("load key: %v", err)
	}
	if got != key {
		t.Fatal("mismatch after load")
	}

	fi, err := os.Stat(k.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("key file mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestKeyring_WrongPassphrase_Fails(t *testing.T) {
	k := newTestKeyring(t)
	if err := k.Save("correct", crypto.GenerateKey()); err != nil {
		t.Fatalf("save key: %v", err)
	}
	if _, err := k.Load("wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestKeyring_Tampered_Fails(t *testing.T) {
	k := newTestKeyring(t)
	if err := k.Save("pass", crypto.GenerateKey()); err != nil {
		t.Fatalf("save key: %v", err)
	}
	b, err := os.ReadFile(k.Path())
	if err != nil {
		t.Fatal(err)
	}
	pt, err := open("pass", b)
	if err != nil || len(pt) != crypto.KeyBytes {
		t.Fatalf("open: %v", err)
	}

	// Rewrite with a different nonce length.
	tampered := []byte(`{"v":1,"salt":"AAAAAAAAAAAAAAAAAAAAAA==","scrypt_N":1024,"scrypt_r":8,"scrypt_p":1,"nonce":"AAAA","cipher":"AAAA"}`)
	if err := os.WriteFile(k.Path(), tampered, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := k.Load("pass"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestKeyring_Missing(t *testing.T) {
	k := newTestKeyring(t)
	if _, err := k.Load("pass"); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}
	if err := k.Save("", crypto.GenerateKey()); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}

func TestOpen_UnsupportedVersion(t *testing.T) {
	if _, err := open("pass", []byte(`{"v":9}`)); err == nil {
		t.Fatal("expected version error")
	}
}

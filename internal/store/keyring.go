package store

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"wisper/internal/crypto"
)

// ErrNoKey is returned by Load when no key file exists yet.
var ErrNoKey = errors.New("no saved key")

// Keyring keeps one session key on disk, sealed under a passphrase.
type Keyring struct {
	mu     sync.Mutex
	path   string
	params kdfParams
}

// NewKeyring returns a keyring stored at path.
func NewKeyring(path string) *Keyring {
	return &Keyring{path: path, params: defaultKDFParams()}
}

// Path returns the key file location.
func (k *Keyring) Path() string { return k.path }

// Exists reports whether a key file is present.
func (k *Keyring) Exists() bool {
	_, err := os.Stat(k.path)
	return err == nil
}

// Save seals key under passphrase, replacing any saved key.
func (k *Keyring) Save(passphrase string, key crypto.Key) error {
	if passphrase == "" {
		return errors.New("keyring: empty passphrase")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	b, err := seal(passphrase, key[:], k.params)
	if err != nil {
		return fmt.Errorf("keyring: seal: %w", err)
	}
	return writeFile(k.path, b, 0o600)
}

// Load opens the saved key with passphrase.
func (k *Keyring) Load(passphrase string) (crypto.Key, error) {
	var key crypto.Key

	k.mu.Lock()
	defer k.mu.Unlock()

	b, err := readFile(k.path)
	if errors.Is(err, os.ErrNotExist) {
		return key, fmt.Errorf("%w at %s", ErrNoKey, k.path)
	}
	if err != nil {
		return key, err
	}
	raw, err := open(passphrase, b)
	if err != nil {
		return key, err
	}
	defer crypto.Wipe(raw)
	if len(raw) != crypto.KeyBytes {
		return key, fmt.Errorf("keyring: stored key has %d bytes", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

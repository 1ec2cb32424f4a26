package domain

import "context"

// Detector classifies an inbound payload as ciphertext or not.
//
// The wire format carries no type tag: chat payloads and relay notices share
// one byte stream, and IsEncrypted reports true iff decryption would succeed.
// Callers depend on this interface only, so a tagged framing can replace trial
// decryption without touching them.
type Detector interface {
	IsEncrypted(payload []byte) bool
}

// SealedDetector is an optional Detector capability. LooksSealed reports
// whether payload is structurally a ciphertext token, regardless of whether it
// authenticates under the local key. A payload that looks sealed but is not
// encrypted for us was produced under a different key.
type SealedDetector interface {
	LooksSealed(payload []byte) bool
}

// Cipher is the symmetric authenticated encryption used between clients.
type Cipher interface {
	Detector
	Encrypt(plaintext []byte) []byte
	Decrypt(ciphertext []byte) ([]byte, error)
}

// InstanceManager starts and stops the remote host that runs the relay.
type InstanceManager interface {
	// RequestStart blocks until the host is running and returns its address.
	RequestStart(ctx context.Context) (string, error)
	RequestStop(ctx context.Context) error
}

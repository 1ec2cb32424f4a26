package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect means the client could not reach the relay.
	ErrConnect = errors.New("cannot connect to server")

	// ErrFraming means a read ended mid-frame and its tail was dropped.
	ErrFraming = errors.New("inbound packet was dropped")

	// ErrInvalidCiphertext means the payload was not sealed under our key,
	// was corrupted, or was not ciphertext at all.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrKeyMismatch means a well-formed token failed authentication: the
	// sender holds a different secret key.
	ErrKeyMismatch = fmt.Errorf("secret key does not match: %w", ErrInvalidCiphertext)

	// ErrMalformedMessage means a decrypted payload did not decode as a chat
	// message.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrPeerWrite means a write to one recipient failed during a relay.
	ErrPeerWrite = errors.New("peer write failed")

	// ErrBind means the relay could not bind its listening address.
	ErrBind = errors.New("cannot bind relay address")
)

// ErrorKind enumerates the failure classes of the relay and client.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConnect
	KindFraming
	KindDecrypt
	KindMalformed
	KindPeerWrite
	KindBind
)

var kindNames = map[ErrorKind]string{
	KindUnknown:   "unknown",
	KindConnect:   "connect",
	KindFraming:   "framing",
	KindDecrypt:   "decrypt",
	KindMalformed: "malformed",
	KindPeerWrite: "peer_write",
	KindBind:      "bind",
}

func (k ErrorKind) String() string { return kindNames[k] }

// KindOf maps err onto the taxonomy. Order matters: ErrKeyMismatch wraps
// ErrInvalidCiphertext and both are decrypt failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConnect):
		return KindConnect
	case errors.Is(err, ErrFraming):
		return KindFraming
	case errors.Is(err, ErrInvalidCiphertext):
		return KindDecrypt
	case errors.Is(err, ErrMalformedMessage):
		return KindMalformed
	case errors.Is(err, ErrPeerWrite):
		return KindPeerWrite
	case errors.Is(err, ErrBind):
		return KindBind
	}
	return KindUnknown
}

// Policy is the local recovery action for a failure.
type Policy int

const (
	// PolicyDrop logs the failure, drops the message and keeps the connection.
	PolicyDrop Policy = iota
	// PolicyDisconnectPeer tears down the one connection that failed.
	PolicyDisconnectPeer
	// PolicyTerminate ends the session or process.
	PolicyTerminate
)

func (p Policy) String() string {
	switch p {
	case PolicyDrop:
		return "drop"
	case PolicyDisconnectPeer:
		return "disconnect_peer"
	case PolicyTerminate:
		return "terminate"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// PolicyFor returns the recovery policy for kind. A single bad frame or a
// single failed peer write never terminates the relay loop for other peers.
func PolicyFor(kind ErrorKind) Policy {
	switch kind {
	case KindFraming, KindMalformed:
		return PolicyDrop
	case KindPeerWrite:
		return PolicyDisconnectPeer
	case KindConnect, KindDecrypt, KindBind:
		return PolicyTerminate
	}
	return PolicyDrop
}

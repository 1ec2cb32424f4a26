// Package store provides file-based persistence for wisper.
//
// The only persistent state is the shared session key, kept so an operator
// does not have to paste it on every start. The key is sealed with
// XChaCha20-Poly1305 under a key derived from a passphrase with scrypt, and
// written atomically as JSON with owner-only permissions.
package store

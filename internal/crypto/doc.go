// Package crypto holds the symmetric primitives shared by wisper clients.
//
// Contents
//
//   - Key generation, parsing and text encoding (GenerateKey, ParseKey)
//   - Cipher: XChaCha20-Poly1305 sealed tokens with trial-decryption
//     detection (Encrypt, Decrypt, IsEncrypted, LooksSealed)
//   - Short key fingerprints for out-of-band comparison (Fingerprint)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Token format
//
//	base64url-nopad( version(1) || nonce(24) || XChaCha20-Poly1305(plaintext, ad=version) )
//
// The encoding alphabet excludes the frame separator, so a token is always
// safe to place in a single wire frame. Decryption fails closed: anything that
// does not authenticate under the local key is reported as ErrInvalidCiphertext
// and never surfaced as plaintext.
package crypto

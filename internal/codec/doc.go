// Package codec serializes chat messages for encryption.
//
// A message is a CBOR map with integer keys (1 = sender, 2 = body). The binary
// length-prefixed encoding is independent of the wire framing: bodies may
// contain the frame separator or any other byte without ambiguity. Decoding is
// strict. Truncated input, trailing bytes, duplicate or unknown keys and a
// missing sender all fail with domain.ErrMalformedMessage.
package codec

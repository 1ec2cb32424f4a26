// Package relay implements the wisper relay server.
//
// The relay accepts TCP connections from chat clients and forwards every
// frame a client sends to all other connected clients. Chat payloads are
// end-to-end ciphertext and are relayed byte for byte; the relay never holds
// a key. It also writes short plaintext status notices of its own, such as
// peer joins, departures and the current peer count.
//
// A relay serves exactly one session. When the last peer leaves it drains
// and Serve returns. Cancelling the context passed to Serve drains it as
// well, so the server can be embedded and tested without exiting the host
// process.
//
// Reads are split into frames one read at a time. A read that ends mid-frame
// loses its tail; partial frames are not carried over to the next read.
package relay

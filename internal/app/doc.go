// Package app wires application dependencies for the wisper CLI.
//
// It builds the log backend, keyring and lifecycle client from Config,
// exposing them via the Wire struct, and runs the chat bootstrap: resolve
// the relay address, connect and hand the terminal to a client session.
package app

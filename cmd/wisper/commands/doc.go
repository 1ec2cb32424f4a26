// Package commands defines the wisper CLI and wires dependencies for subcommands.
//
// Commands
//
//   - chat            Join a chat session through a relay
//   - keygen          Generate a shared secret key, optionally saving it
//   - fingerprint     Print the fingerprint of a secret key
//   - instance start  Boot the relay host through the lifecycle API
//   - instance stop   Power the relay host down
//
// # Implementation
//
// The root command loads the client configuration and builds the dependency
// graph (log backend, keyring, lifecycle client) before any subcommand runs.
package commands

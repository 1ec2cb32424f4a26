// Command relay runs a wisper relay server.
//
// It binds 0.0.0.0:4440 by default, relays every frame a peer sends to the
// other connected peers and exits once the last peer leaves. A TOML file can
// set the bind address, logging, a Prometheus endpoint, a Redis event stream
// and a lifecycle endpoint that powers the host down after the session.
//
// Usage:
//
//	relay [--config relay.toml] [--address host:port] [--log-level LEVEL] [--metrics host:port]
package main

// Package events carries relay lifecycle events to observers. The relay
// emits events on its own goroutines, so slow sinks sit behind Async.
package events

import (
	"strconv"
	"time"

	"gopkg.in/op/go-logging.v1"
)

// Kind names a relay lifecycle event.
type Kind string

const (
	ServerStart     Kind = "server.start"
	PeerConnect     Kind = "peer.connect"
	PeerDisconnect  Kind = "peer.disconnect"
	MessageReceived Kind = "message.received"
	ServerShutdown  Kind = "server.shutdown"
)

// Event is one lifecycle notification. Message events carry the frame size
// only, never the payload.
type Event struct {
	Kind  Kind
	Time  time.Time
	Addr  string
	Peer  string
	Ord   uint64
	Count int
	Bytes int
}

// Fields flattens e into string values for structured sinks.
func (e Event) Fields() map[string]any {
	f := map[string]any{
		"kind": string(e.Kind),
		"time": e.Time.UTC().Format(time.RFC3339Nano),
	}
	if e.Addr != "" {
		f["addr"] = e.Addr
	}
	if e.Peer != "" {
		f["peer"] = e.Peer
		f["ord"] = strconv.FormatUint(e.Ord, 10)
	}
	if e.Kind != MessageReceived && e.Kind != ServerStart {
		f["count"] = strconv.Itoa(e.Count)
	}
	if e.Kind == MessageReceived {
		f["bytes"] = strconv.Itoa(e.Bytes)
	}
	return f
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Multi fans an event out to every sink in order.
type Multi []Sink

// Emit passes e to each non-nil sink.
func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// LogSink writes events to a go-logging logger in the relay's console format.
type LogSink struct {
	Log *logging.Logger
}

// Emit logs e at NOTICE, or INFO for message events.
func (s *LogSink) Emit(e Event) {
	switch e.Kind {
	case ServerStart:
		s.Log.Noticef("Server started on %s", e.Addr)
	case PeerConnect:
		s.Log.Noticef("Peer %d connected from %s (%d connected)", e.Ord, e.Addr, e.Count)
	case PeerDisconnect:
		s.Log.Noticef("Peer %d disconnected (%d connected)", e.Ord, e.Count)
	case MessageReceived:
		s.Log.Infof("Received %d bytes from peer %d", e.Bytes, e.Ord)
	case ServerShutdown:
		s.Log.Notice("Server shutting down")
	default:
		s.Log.Debugf("Unknown event %q", e.Kind)
	}
}

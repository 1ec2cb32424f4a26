// Package obs holds the relay's Prometheus metrics and the HTTP endpoint
// that exposes them together with health probes.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedPeers     = promauto.NewGauge(prometheus.GaugeOpts{Name: "wisper_connected_peers", Help: "Peers currently registered with the relay"})
	ConnectionsTotal   = promauto.NewCounter(prometheus.CounterOpts{Name: "wisper_connections_total", Help: "Peer connections accepted"})
	FramesRelayedTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "wisper_frames_relayed_total", Help: "Frames fanned out to other peers"})
	FramesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wisper_frames_dropped_total", Help: "Inbound reads dropped by reason"}, []string{"reason"})
	PeerWriteFailures  = promauto.NewCounter(prometheus.CounterOpts{Name: "wisper_peer_write_failures_total", Help: "Writes to a peer that failed and removed it"})
	UndeliveredTotal   = promauto.NewCounter(prometheus.CounterOpts{Name: "wisper_undelivered_total", Help: "Messages sent while the sender was alone"})
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "wisper_events_dropped_total", Help: "Lifecycle events dropped because a sink fell behind"})
	FrameBytes         = promauto.NewHistogram(prometheus.HistogramOpts{Name: "wisper_frame_bytes", Help: "Size of relayed frames", Buckets: prometheus.ExponentialBuckets(16, 2, 10)})
)

// Drop reasons.
const (
	ReasonIncomplete = "incomplete"
	ReasonEmpty      = "empty"
)

// Package lifecycle provides an HTTP implementation of the
// domain.InstanceManager interface used by wisper.
//
// The relay host is an on-demand cloud instance. A lifecycle API sits in
// front of it and accepts two actions:
//   - start_instance boots the host and answers with its public address.
//   - stop_instance powers it down once the relay has drained.
//
// Requests are JSON over HTTP and accept a context for cancellation and
// deadlines. A gateway timeout on start means the host is still booting and
// the request is retried. A bad gateway means the host is mid-shutdown and
// is reported as ErrShuttingDown.
package lifecycle

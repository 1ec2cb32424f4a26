package events

import (
	"sync"

	"wisper/internal/obs"
)

// DefaultQueueSize bounds the events an Async sink holds for a slow target.
const DefaultQueueSize = 1024

// Async hands events to a slower sink on its own goroutine, in order. When
// the queue is full the event is dropped and counted in
// obs.EventsDroppedTotal; Emit never waits on the target.
type Async struct {
	next  Sink
	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts delivering to next. size <= 0 takes DefaultQueueSize.
func NewAsync(next Sink, size int) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	a := &Async{
		next:  next,
		queue: make(chan Event, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		a.next.Emit(e)
	}
}

// Emit queues e, or drops it if the queue is full or a is closed.
func (a *Async) Emit(e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return
	}
	select {
	case a.queue <- e:
	default:
		obs.EventsDroppedTotal.Inc()
	}
}

// Close stops accepting events and waits until the queued ones are
// delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

package relay

import (
	"fmt"
	"net"
	"sync"
	"time"

	"wisper/internal/domain"
	"wisper/internal/framing"
)

const writeTimeout = 10 * time.Second

type peer struct {
	id   string
	ord  uint64
	addr string
	conn net.Conn

	wMu sync.Mutex
}

// send writes one send's worth of frames. Writes to a peer are serialized so
// concurrent relays never interleave on the wire.
func (p *peer) send(frames ...domain.Frame) error {
	b := framing.Wrap(frames...)

	p.wMu.Lock()
	defer p.wMu.Unlock()

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := p.conn.Write(b); err != nil {
		return fmt.Errorf("%w: peer %d: %v", domain.ErrPeerWrite, p.ord, err)
	}
	return nil
}

func (p *peer) notify(s domain.Status) error {
	return p.send(s.Frame())
}

// registry is the set of connected peers. Every mutation and every
// iteration goes through its lock; callers write to peers only from a
// snapshot taken under it.
type registry struct {
	sync.Mutex

	peers  map[*peer]struct{}
	closed bool
}

func newRegistry() *registry {
	return &registry{peers: make(map[*peer]struct{})}
}

// add registers p and returns the new size. It refuses once the registry is
// closed.
func (r *registry) add(p *peer) (int, bool) {
	r.Lock()
	defer r.Unlock()

	if r.closed {
		return len(r.peers), false
	}
	r.peers[p] = struct{}{}
	return len(r.peers), true
}

// remove deregisters p. Only the first call for a peer reports true.
func (r *registry) remove(p *peer) (int, bool) {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.peers[p]; !ok {
		return len(r.peers), false
	}
	delete(r.peers, p)
	return len(r.peers), true
}

func (r *registry) len() int {
	r.Lock()
	defer r.Unlock()

	return len(r.peers)
}

func (r *registry) snapshot(except *peer) []*peer {
	r.Lock()
	defer r.Unlock()

	out := make([]*peer, 0, len(r.peers))
	for p := range r.peers {
		if p != except {
			out = append(out, p)
		}
	}
	return out
}

// closeAll refuses further peers and closes every connection, which unblocks
// their workers. Peers stay registered until their workers remove them.
func (r *registry) closeAll() {
	r.Lock()
	defer r.Unlock()

	r.closed = true
	for p := range r.peers {
		p.conn.Close()
	}
}

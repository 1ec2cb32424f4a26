package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gopkg.in/op/go-logging.v1"

	"wisper/internal/config"
	"wisper/internal/domain"
	"wisper/internal/events"
	"wisper/internal/framing"
	"wisper/internal/log"
	"wisper/internal/obs"
)

const keepAliveInterval = 3 * time.Minute

// State is a stage of the relay's single session.
type State int32

const (
	StateListening State = iota
	StateAccepting
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithSink sets the receiver of lifecycle events.
func WithSink(sink events.Sink) Option {
	return func(s *Server) { s.sink = sink }
}

// Server is a single-session relay.
type Server struct {
	cfg  config.Server
	log  *logging.Logger
	sink events.Sink

	state atomic.Int32
	reg   *registry
	ord   atomic.Uint64

	mu sync.Mutex
	ln net.Listener

	haltCh   chan struct{}
	haltOnce sync.Once
	doneCh   chan struct{}
	wg       sync.WaitGroup
}

// New returns a relay for cfg. Zero fields take the config defaults.
func New(cfg *config.Server, opts ...Option) *Server {
	s := &Server{
		reg:    newRegistry(),
		sink:   events.Discard,
		haltCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if cfg != nil {
		s.cfg = *cfg
	}
	if s.cfg.Address == "" {
		s.cfg.Address = config.DefaultRelayAddress
	}
	if s.cfg.ReadBufferSize <= 0 {
		s.cfg.ReadBufferSize = config.DefaultReadBufferSize
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		b, _ := log.NewWriter(io.Discard, "ERROR")
		s.log = b.GetLogger("relay")
	}
	return s
}

// ListenAndServe binds the configured address and serves until the session
// ends or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBind, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts peers on ln until the registry empties, Shutdown is called
// or ctx is cancelled. It returns nil after an intentional drain.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.state.CompareAndSwap(int32(StateListening), int32(StateAccepting)) {
		return errors.New("relay: server already started")
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	addr := ln.Addr()
	s.log.Noticef("Listening on: %v", addr)
	s.emit(events.Event{Kind: events.ServerStart, Addr: addr.String()})

	go func() {
		select {
		case <-ctx.Done():
			s.log.Notice("Context cancelled, draining")
			s.Shutdown()
		case <-s.haltCh:
		}
	}()
	select {
	case <-s.haltCh:
		ln.Close()
	default:
	}

	err := s.acceptLoop(ln)

	s.state.Store(int32(StateDraining))
	s.reg.closeAll()
	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	s.log.Noticef("Stopped listening on: %v", addr)
	s.emit(events.Event{Kind: events.ServerShutdown})
	close(s.doneCh)
	return err
}

func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.halted() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.log.Errorf("accept failure: %v", err)
			s.Shutdown()
			return fmt.Errorf("relay: accept: %w", err)
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetKeepAlive(true)
			_ = tcpConn.SetKeepAlivePeriod(keepAliveInterval)
		}
		s.log.Debugf("Accepted new connection: %v", conn.RemoteAddr())

		s.onNewConn(conn)
	}
}

// Shutdown starts draining the relay. It does not wait; see Done.
func (s *Server) Shutdown() {
	s.haltOnce.Do(func() {
		close(s.haltCh)
		s.state.CompareAndSwap(int32(StateAccepting), int32(StateDraining))
		s.mu.Lock()
		if s.ln != nil {
			s.ln.Close()
		}
		s.mu.Unlock()
	})
}

// Done is closed once the relay has stopped.
func (s *Server) Done() <-chan struct{} { return s.doneCh }

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// State returns the current session stage.
func (s *Server) State() State { return State(s.state.Load()) }

// Peers returns the number of registered peers.
func (s *Server) Peers() int { return s.reg.len() }

func (s *Server) halted() bool {
	select {
	case <-s.haltCh:
		return true
	default:
		return false
	}
}

func (s *Server) emit(e events.Event) {
	e.Time = time.Now()
	s.sink.Emit(e)
}

func (s *Server) onNewConn(conn net.Conn) {
	p := &peer{
		id:   uuid.NewString(),
		ord:  s.ord.Add(1),
		addr: conn.RemoteAddr().String(),
		conn: conn,
	}

	n, ok := s.reg.add(p)
	if !ok {
		s.log.Debugf("Rejecting %v: draining", p.addr)
		conn.Close()
		return
	}
	obs.ConnectionsTotal.Inc()
	obs.ConnectedPeers.Set(float64(n))
	s.emit(events.Event{Kind: events.PeerConnect, Addr: p.addr, Peer: p.id, Ord: p.ord, Count: n})

	s.wg.Add(1)
	go s.worker(p)
}

func (s *Server) worker(p *peer) {
	defer s.wg.Done()
	defer s.removePeer(p)

	s.broadcast(p, noticePeerConnected.Frame())
	if err := s.greet(p); err != nil {
		s.log.Debugf("Peer %d: greeting failed: %v", p.ord, err)
		return
	}

	buf := make([]byte, s.cfg.ReadBufferSize)
	resync := false
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			resync = s.route(p, buf[:n], resync)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debugf("Peer %d: read: %v", p.ord, err)
			}
			return
		}
	}
}

func (s *Server) greet(p *peer) error {
	if err := p.notify(noticeWelcome); err != nil {
		return err
	}
	s.updatePeerCount()
	if s.reg.len() < 2 {
		return p.notify(noticeWaiting)
	}
	return p.notify(noticeReady)
}

// route handles one read from p and reports whether it ended mid-frame.
// When resync is set the previous read ended mid-frame, so everything up to
// the first separator is the rest of a dropped frame and is discarded too.
func (s *Server) route(p *peer, read []byte, resync bool) bool {
	s.emit(events.Event{Kind: events.MessageReceived, Peer: p.id, Ord: p.ord, Bytes: len(read)})
	s.log.Debugf("Peer %d sent %q", p.ord, read)

	if resync {
		i := bytes.IndexByte(read, domain.Separator)
		if i < 0 {
			obs.FramesDroppedTotal.WithLabelValues(obs.ReasonIncomplete).Inc()
			s.log.Debugf("Peer %d: dropped %d bytes of an incomplete frame", p.ord, len(read))
			return true
		}
		s.log.Debugf("Peer %d: dropped %d trailing bytes of an incomplete frame", p.ord, i)
		read = read[i+1:]
	}

	frames, err := framing.Split(read)
	if err != nil {
		obs.FramesDroppedTotal.WithLabelValues(obs.ReasonIncomplete).Inc()
		s.log.Warningf("Peer %d: %v (%s)", p.ord, err, domain.PolicyFor(domain.KindOf(err)))
	}
	incomplete := err != nil
	if len(frames) == 0 {
		if err == nil && !resync {
			obs.FramesDroppedTotal.WithLabelValues(obs.ReasonEmpty).Inc()
		}
		return incomplete
	}

	if s.reg.len() == 1 {
		obs.UndeliveredTotal.Inc()
		if err := p.notify(noticeNotDelivered); err != nil {
			s.onWriteError(p, err)
		}
		return incomplete
	}

	for _, f := range frames {
		obs.FrameBytes.Observe(float64(len(f)))
	}
	obs.FramesRelayedTotal.Add(float64(len(frames)))
	s.broadcast(p, frames...)
	return incomplete
}

// broadcast sends frames to every peer but except. A failed write removes
// only that recipient.
func (s *Server) broadcast(except *peer, frames ...domain.Frame) {
	for _, q := range s.reg.snapshot(except) {
		if err := q.send(frames...); err != nil {
			s.onWriteError(q, err)
		}
	}
}

func (s *Server) onWriteError(q *peer, err error) {
	obs.PeerWriteFailures.Inc()
	s.log.Warningf("Peer %d: %v", q.ord, err)
	if domain.PolicyFor(domain.KindOf(err)) == domain.PolicyDisconnectPeer {
		s.removePeer(q)
	}
}

// updatePeerCount tells every peer how many others are connected.
func (s *Server) updatePeerCount() {
	peers := s.reg.snapshot(nil)
	notice := noticePeerCount(len(peers) - 1)
	for _, q := range peers {
		if err := q.notify(notice); err != nil {
			s.onWriteError(q, err)
		}
	}
}

// removePeer deregisters p and tells the rest. The last departure drains the
// relay.
func (s *Server) removePeer(p *peer) {
	n, ok := s.reg.remove(p)
	if !ok {
		return
	}
	p.conn.Close()
	obs.ConnectedPeers.Set(float64(n))
	s.emit(events.Event{Kind: events.PeerDisconnect, Addr: p.addr, Peer: p.id, Ord: p.ord, Count: n})

	if s.halted() {
		return
	}
	if n == 0 {
		s.log.Notice("Last peer left, draining")
		s.Shutdown()
		return
	}
	s.broadcast(nil, noticePeerDisconnected.Frame())
	s.updatePeerCount()
}

package relay

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wisper/internal/config"
	"wisper/internal/domain"
	"wisper/internal/events"
)

const waitTimeout = 3 * time.Second

type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Emit(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, e)
}

func (r *recorder) count(k events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.evs {
		if e.Kind == k {
			n++
		}
	}
	return n
}

type running struct {
	srv    *Server
	rec    *recorder
	addr   string
	cancel context.CancelFunc
	errCh  chan error
}

func startRelay(t *testing.T) *running {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	rec := new(recorder)
	srv := New(&config.Server{ReadBufferSize: 4096}, WithSink(rec))
	ctx, cancel := context.WithCancel(context.Background())
	r := &running{srv: srv, rec: rec, addr: ln.Addr().String(), cancel: cancel, errCh: make(chan error, 1)}
	go func() { r.errCh <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-srv.Done():
		case <-time.After(waitTimeout):
			t.Error("relay did not stop")
		}
	})
	return r
}

func (r *running) waitStopped(t *testing.T) {
	t.Helper()
	select {
	case <-r.srv.Done():
	case <-time.After(waitTimeout):
		t.Fatal("relay did not stop")
	}
	require.NoError(t, <-r.errCh)
}

type testPeer struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *testPeer {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testPeer{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (p *testPeer) readLine(timeout time.Duration) (string, error) {
	_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := p.r.ReadString(domain.Separator)
	return strings.TrimSuffix(line, string(domain.Separator)), err
}

func (p *testPeer) write(s string) {
	p.t.Helper()
	_, err := p.conn.Write([]byte(s))
	require.NoError(p.t, err)
}

// waitFor reads lines until want arrives and returns the lines skipped.
func (p *testPeer) waitFor(want domain.Status) []string {
	p.t.Helper()
	var seen []string
	deadline := time.Now().Add(waitTimeout)
	for {
		line, err := p.readLine(time.Until(deadline))
		require.NoError(p.t, err, "waiting for %q, saw %q", want, seen)
		if line == string(want) {
			return seen
		}
		seen = append(seen, line)
	}
}

// expectNone fails if unwanted arrives within d.
func (p *testPeer) expectNone(unwanted string, d time.Duration) {
	p.t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		line, err := p.readLine(time.Until(deadline))
		if err != nil {
			var ne net.Error
			require.True(p.t, errors.As(err, &ne) && ne.Timeout(), "unexpected read error: %v", err)
			return
		}
		require.NotEqual(p.t, unwanted, line)
	}
}

// fakeConn records writes and fails every write after failAfter successful
// ones. Reads block until Close. A non-nil gate holds every write until it is
// closed.
type fakeConn struct {
	mu        sync.Mutex
	out       bytes.Buffer
	writes    int
	failAfter int
	gate      chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn(failAfter int) *fakeConn {
	return &fakeConn{failAfter: failAfter, closed: make(chan struct{})}
}

func (c *fakeConn) Read([]byte) (int, error) {
	<-c.closed
	return 0, net.ErrClosed
}

func (c *fakeConn) Write(b []byte) (int, error) {
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-c.closed:
			return 0, net.ErrClosed
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAfter >= 0 && c.writes >= c.failAfter {
		return 0, errors.New("broken pipe")
	}
	c.writes++
	c.out.Write(b)
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

var (
	fakeLocal  = &net.TCPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 4440}
	fakeRemote = &net.TCPAddr{IP: net.IPv4(192, 0, 2, 2), Port: 50000}
)

func (c *fakeConn) LocalAddr() net.Addr  { return fakeLocal }
func (c *fakeConn) RemoteAddr() net.Addr { return fakeRemote }

func (c *fakeConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

var _ net.Conn = (*fakeConn)(nil)

package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"

	"wisper/internal/codec"
	"wisper/internal/config"
	"wisper/internal/crypto"
	"wisper/internal/domain"
	"wisper/internal/framing"
	"wisper/internal/log"
)

// ExitCommand ends the session when typed on its own line, in any case.
const ExitCommand = "exit()"

const (
	msgDropped      = "Inbound packet was dropped"
	msgMalformed    = "Dropped malformed message"
	msgKeyMismatch  = "Secret key does not match."
	msgDisconnected = "Disconnected from Secure Messaging Service"
	msgTooLong      = "Message too long, not sent"

	maxLineBytes = 1 << 20
	dialTimeout  = 10 * time.Second
)

// Options configures a Session.
type Options struct {
	Alias  string
	Cipher domain.Cipher

	// In supplies operator lines; Out receives the transcript.
	In  io.Reader
	Out io.Writer

	Log            *logging.Logger
	ReadBufferSize int
}

// Session is one connection to the relay.
type Session struct {
	conn net.Conn
	opts Options

	outMu     sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the relay at addr.
func Dial(ctx context.Context, addr string, opts Options) (*Session, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConnect, addr, err)
	}
	return New(conn, opts), nil
}

// New wraps an established relay connection.
func New(conn net.Conn, opts Options) *Session {
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = config.DefaultReadBufferSize
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Log == nil {
		b, _ := log.NewWriter(io.Discard, "ERROR")
		opts.Log = b.GetLogger("client")
	}
	return &Session{conn: conn, opts: opts, done: make(chan struct{})}
}

// Run drives the session until the operator exits, input ends, the relay
// goes away or ctx is cancelled. It returns domain.ErrKeyMismatch when a
// peer's message was sealed under another key.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	lines := make(chan string)
	inDone := make(chan error, 1)
	if s.opts.In != nil {
		go s.readInput(lines, inDone)
	}

	reads := make(chan []byte)
	connDone := make(chan error, 1)
	go s.readConn(reads, connDone)

	for {
		select {
		case <-ctx.Done():
			s.opts.Log.Debug("Interrupted")
			return nil
		case line := <-lines:
			if strings.EqualFold(strings.TrimSpace(line), ExitCommand) {
				return nil
			}
			if err := s.send(line); err != nil {
				return err
			}
		case err := <-inDone:
			if err != nil {
				s.opts.Log.Errorf("input: %v", err)
			}
			return nil
		case b := <-reads:
			if err := s.receive(b); err != nil {
				return err
			}
		case err := <-connDone:
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}
	}
}

// Close ends the session and tells the operator. It is safe to call more
// than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
		s.println(msgDisconnected)
	})
	return err
}

func (s *Session) readInput(lines chan<- string, done chan<- error) {
	sc := bufio.NewScanner(s.opts.In)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		select {
		case lines <- strings.TrimSuffix(sc.Text(), "\r"):
		case <-s.done:
			return
		}
	}
	done <- sc.Err()
}

func (s *Session) readConn(reads chan<- []byte, done chan<- error) {
	buf := make([]byte, s.opts.ReadBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			b := make([]byte, n)
			copy(b, buf[:n])
			select {
			case reads <- b:
			case <-s.done:
				return
			}
		}
		if err != nil {
			done <- err
			return
		}
	}
}

func (s *Session) send(line string) error {
	pt, err := codec.Serialize(line, s.opts.Alias)
	if err != nil {
		return err
	}
	token := s.opts.Cipher.Encrypt(pt)
	crypto.Wipe(pt)

	// The relay reads ReadBufferSize bytes at a time and does not reassemble,
	// so a longer frame would arrive in pieces.
	if len(token)+1 > s.opts.ReadBufferSize {
		s.opts.Log.Warningf("line of %d bytes seals to %d, limit %d", len(line), len(token)+1, s.opts.ReadBufferSize)
		s.println(msgTooLong)
		return nil
	}

	if _, err := s.conn.Write(framing.Wrap(domain.Frame(token))); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	s.printf("Sent: %s\n", line)
	return nil
}

// receive renders one read from the relay. Only a terminating failure is
// returned.
func (s *Session) receive(read []byte) error {
	frames, err := framing.Split(read)
	if err != nil {
		s.opts.Log.Warningf("%v (%d bytes)", err, len(read))
		s.println(msgDropped)
	}
	for _, f := range frames {
		err := s.render(f)
		if err == nil {
			continue
		}
		s.opts.Log.Warningf("frame: %v", err)
		if domain.PolicyFor(domain.KindOf(err)) == domain.PolicyTerminate {
			return err
		}
	}
	return nil
}

func (s *Session) render(f domain.Frame) error {
	c := s.opts.Cipher
	if !c.IsEncrypted(f) {
		if sd, ok := c.(domain.SealedDetector); ok && sd.LooksSealed(f) {
			s.println(msgKeyMismatch)
			return domain.ErrKeyMismatch
		}
		s.println(string(f))
		return nil
	}

	pt, err := c.Decrypt(f)
	if err != nil {
		s.println(msgKeyMismatch)
		return err
	}
	defer crypto.Wipe(pt)

	msg, err := codec.Deserialize(pt)
	if err != nil {
		s.println(msgMalformed)
		return err
	}
	s.printf("<%s> %s\n", msg.Sender, msg.Body)
	return nil
}

func (s *Session) println(line string) {
	s.printf("%s\n", line)
}

func (s *Session) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.opts.Out, format, args...)
}

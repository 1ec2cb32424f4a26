package app

import (
	"context"
	"errors"
	"io"
	"time"

	"wisper/internal/client"
	"wisper/internal/crypto"
)

// stopTimeout bounds the stop request sent when a bootstrap is abandoned.
const stopTimeout = 30 * time.Second

// ErrNoServer is returned when no relay address is given and no lifecycle
// endpoint is configured to start one.
var ErrNoServer = errors.New("no server address: pass --server or configure a lifecycle endpoint")

// Pending is a relay address that may still be booting.
type Pending struct {
	started bool
	ch      chan resolved
}

type resolved struct {
	addr string
	err  error
}

// Resolve returns the relay address for server. With no server it asks the
// lifecycle API to start one in the background so prompts can run meanwhile.
func (w *Wire) Resolve(ctx context.Context, server string) *Pending {
	p := &Pending{ch: make(chan resolved, 1)}
	switch {
	case server != "":
		p.ch <- resolved{addr: w.Config.Client.ServerAddress(server)}
	case w.Instances == nil:
		p.ch <- resolved{err: ErrNoServer}
	default:
		p.started = true
		go func() {
			host, err := w.Instances.RequestStart(ctx)
			if err != nil {
				p.ch <- resolved{err: err}
				return
			}
			p.ch <- resolved{addr: w.Config.Client.ServerAddress(host)}
		}()
	}
	return p
}

// Started reports whether a lifecycle start request was issued.
func (p *Pending) Started() bool { return p.started }

// Wait blocks until the address is known or ctx ends.
func (p *Pending) Wait(ctx context.Context) (string, error) {
	select {
	case r := <-p.ch:
		return r.addr, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Abandon asks the lifecycle API to stop a host this bootstrap started.
func (w *Wire) Abandon(p *Pending) error {
	if p == nil || !p.Started() || w.Instances == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return w.Instances.RequestStop(ctx)
}

// Chat connects to addr and runs a session until it ends.
func (w *Wire) Chat(ctx context.Context, addr string, key crypto.Key, alias string, in io.Reader, out io.Writer) error {
	c, err := crypto.NewCipher(key)
	if err != nil {
		return err
	}
	s, err := client.Dial(ctx, addr, client.Options{
		Alias:          alias,
		Cipher:         c,
		In:             in,
		Out:            out,
		Log:            w.Logger("client"),
		ReadBufferSize: w.Config.Client.ReadBufferSize,
	})
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

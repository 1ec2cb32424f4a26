package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wisper/internal/app"
	"wisper/internal/config"
	"wisper/internal/crypto"
	"wisper/internal/domain"
	"wisper/internal/relay"
)

func clientConfig(t *testing.T, endpoint string) *config.ClientConfig {
	t.Helper()
	cfg := config.DefaultClient()
	cfg.Logging.Disable = true
	cfg.Keyring.Path = t.TempDir() + "/key.enc"
	cfg.Lifecycle.Endpoint = endpoint
	return cfg
}

func TestNewWire_Defaults(t *testing.T) {
	w, err := app.NewWire(app.Config{Client: clientConfig(t, "")})
	require.NoError(t, err)
	defer w.Close()

	require.Nil(t, w.Instances)
	require.NotNil(t, w.Keyring)
	require.False(t, w.Keyring.Exists())

	addr, err := w.Resolve(context.Background(), "").Wait(context.Background())
	require.ErrorIs(t, err, app.ErrNoServer)
	require.Empty(t, addr)

	p := w.Resolve(context.Background(), "198.51.100.4")
	require.False(t, p.Started())
	addr, err = p.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "198.51.100.4:4440", addr)
	require.NoError(t, w.Abandon(p))
}

func TestResolve_LifecycleStartAndAbandon(t *testing.T) {
	var stops atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action string `json:"action"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Action {
		case "start_instance":
			_ = json.NewEncoder(w).Encode(map[string]string{"public_ip_address": "203.0.113.5", "state": "running"})
		case "stop_instance":
			stops.Add(1)
		}
	}))
	defer srv.Close()

	w, err := app.NewWire(app.Config{Client: clientConfig(t, srv.URL), HTTP: srv.Client()})
	require.NoError(t, err)
	defer w.Close()
	require.NotNil(t, w.Instances)

	p := w.Resolve(context.Background(), "")
	require.True(t, p.Started())
	addr, err := p.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "203.0.113.5:4440", addr)

	require.NoError(t, w.Abandon(p))
	require.Equal(t, int32(1), stops.Load())
}

func TestPending_WaitCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	w, err := app.NewWire(app.Config{Client: clientConfig(t, srv.URL)})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = w.Resolve(ctx, "").Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChat(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := relay.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, ln) }()

	w, err := app.NewWire(app.Config{Client: clientConfig(t, "")})
	require.NoError(t, err)
	defer w.Close()

	var out bytes.Buffer
	err = w.Chat(context.Background(), ln.Addr().String(), crypto.GenerateKey(), "alice", strings.NewReader("exit()\n"), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "Disconnected from Secure Messaging Service")

	select {
	case <-srv.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("relay did not drain after the only peer left")
	}

	err = w.Chat(context.Background(), ln.Addr().String(), crypto.GenerateKey(), "alice", strings.NewReader(""), &out)
	require.ErrorIs(t, err, domain.ErrConnect)
}

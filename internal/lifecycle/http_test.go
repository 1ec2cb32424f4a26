package lifecycle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int) *HTTP {
	c := NewHTTP(url, 2*time.Second, retries)
	c.RetryDelay = 10 * time.Millisecond
	return c
}

func TestRequestStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "start_instance", req.Action)
		_ = json.NewEncoder(w).Encode(response{PublicIPAddress: "203.0.113.9", State: "running"})
	}))
	defer srv.Close()

	addr, err := newTestClient(srv.URL, 0).RequestStart(context.Background())
	require.NoError(t, err)
	require.Equal(t, "203.0.113.9", addr)
}

func TestRequestStart_RetriesGatewayTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_ = json.NewEncoder(w).Encode(response{PublicIPAddress: "203.0.113.10", State: "running"})
	}))
	defer srv.Close()

	addr, err := newTestClient(srv.URL, 5).RequestStart(context.Background())
	require.NoError(t, err)
	require.Equal(t, "203.0.113.10", addr)
	require.Equal(t, int32(3), calls.Load())
}

func TestRequestStart_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).RequestStart(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusGatewayTimeout, se.Code)
	require.Equal(t, int32(3), calls.Load())
}

func TestRequestStart_ShuttingDown(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 5).RequestStart(context.Background())
	require.ErrorIs(t, err, ErrShuttingDown)
	require.Equal(t, int32(1), calls.Load())
}

func TestRequestStart_NoAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(response{State: "pending"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).RequestStart(context.Background())
	require.ErrorContains(t, err, "no address")
}

func TestRequestStart_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 100)
	c.RetryDelay = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.RequestStart(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestStop(t *testing.T) {
	var action atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		_ = json.NewDecoder(r.Body).Decode(&req)
		action.Store(req.Action)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL, 0).RequestStop(context.Background()))
	require.Equal(t, "stop_instance", action.Load())
}

func TestRequestStop_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 0).RequestStop(context.Background())
	require.ErrorContains(t, err, "lifecycle stop_instance: 500")
}

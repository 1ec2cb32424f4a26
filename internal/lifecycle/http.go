package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wisper/internal/domain"
)

const (
	actionStart = "start_instance"
	actionStop  = "stop_instance"
)

// ErrShuttingDown is returned when the host is stopping and cannot be started
// yet.
var ErrShuttingDown = errors.New("server is shutting down, try again shortly")

type request struct {
	Action string `json:"action"`
}

type response struct {
	PublicIPAddress string `json:"public_ip_address"`
	State           string `json:"state"`
}

// StatusError is a non-2xx answer from the lifecycle API.
type StatusError struct {
	Action string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lifecycle %s: %s", e.Action, e.Status)
}

// HTTP drives the instance lifecycle API over HTTP.
type HTTP struct {
	Endpoint     string
	HTTP         *http.Client
	StartRetries int
	RetryDelay   time.Duration
}

// NewHTTP returns a client for endpoint with a per-request timeout.
func NewHTTP(endpoint string, timeout time.Duration, retries int) *HTTP {
	return &HTTP{
		Endpoint:     endpoint,
		HTTP:         &http.Client{Timeout: timeout},
		StartRetries: retries,
		RetryDelay:   2 * time.Second,
	}
}

// RequestStart asks the API to boot the host and returns its public address.
func (c *HTTP) RequestStart(ctx context.Context) (string, error) {
	var out response
	attempts := c.StartRetries + 1
	for i := 0; ; i++ {
		err := c.post(ctx, actionStart, &out)
		if err == nil {
			break
		}
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusGatewayTimeout || i+1 >= attempts {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
	if out.PublicIPAddress == "" {
		return "", fmt.Errorf("lifecycle %s: no address in response (state %q)", actionStart, out.State)
	}
	return out.PublicIPAddress, nil
}

// RequestStop asks the API to stop the host.
func (c *HTTP) RequestStop(ctx context.Context) error {
	return c.post(ctx, actionStop, nil)
}

func (c *HTTP) post(ctx context.Context, action string, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(request{Action: action}); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("lifecycle %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadGateway {
		return ErrShuttingDown
	}
	if resp.StatusCode/100 != 2 {
		return &StatusError{Action: action, Code: resp.StatusCode, Status: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ domain.InstanceManager = (*HTTP)(nil)

// Package config provides the TOML configuration for the wisper relay and
// client. Both binaries run with defaults when no file is given; command line
// flags override file values.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"wisper/internal/domain"
	"wisper/internal/log"
)

const (
	// DefaultRelayLogLevel is the default relay logging level.
	DefaultRelayLogLevel = "NOTICE"

	// DefaultClientLogLevel keeps diagnostics out of the chat transcript.
	DefaultClientLogLevel = "ERROR"

	// DefaultReadBufferSize is the fixed size of one socket read.
	DefaultReadBufferSize = 4096

	// DefaultLifecycleTimeout bounds one start/stop request (in milliseconds).
	// A cold start of the remote host takes tens of seconds.
	DefaultLifecycleTimeout = 90 * 1000

	// DefaultStartRetries bounds gateway-timeout retries of a start request.
	DefaultStartRetries = 5

	// DefaultEventStream is the Redis stream that receives relay events.
	DefaultEventStream = "wisper:events"

	// DefaultEventStreamMaxLen caps the Redis stream (approximate trimming).
	DefaultEventStreamMaxLen = 10000
)

// DefaultRelayAddress is the relay bind address.
var DefaultRelayAddress = net.JoinHostPort("0.0.0.0", fmt.Sprint(domain.DefaultPort))

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log destination: a path, "stdout" or "stderr".
	File string

	// Level specifies the log level.
	Level string
}

func (l *Logging) validate() error {
	if !log.ValidLevel(l.Level) {
		return fmt.Errorf("config: Logging: invalid Level '%v'", l.Level)
	}
	return nil
}

// Lifecycle configures the cloud lifecycle API that starts and stops the
// relay host.
type Lifecycle struct {
	// Endpoint is the lifecycle API URL; empty disables it.
	Endpoint string

	// TimeoutMs bounds one request.
	TimeoutMs int

	// StartRetries bounds retries of a start request on gateway timeouts.
	StartRetries int

	// StopOnDrain asks the API to stop the host after the relay drains.
	StopOnDrain bool
}

func (l *Lifecycle) applyDefaults() {
	if l.TimeoutMs <= 0 {
		l.TimeoutMs = DefaultLifecycleTimeout
	}
	if l.StartRetries <= 0 {
		l.StartRetries = DefaultStartRetries
	}
}

func (l *Lifecycle) validate() error {
	if l.StopOnDrain && l.Endpoint == "" {
		return errors.New("config: Lifecycle: StopOnDrain requires Endpoint")
	}
	if l.Endpoint != "" && !strings.HasPrefix(l.Endpoint, "http://") && !strings.HasPrefix(l.Endpoint, "https://") {
		return fmt.Errorf("config: Lifecycle: Endpoint '%v' is not an http(s) URL", l.Endpoint)
	}
	return nil
}

func decode(b []byte, cfg any) error {
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	return nil
}

func readFile(f string) ([]byte, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%v': %w", f, err)
	}
	return b, nil
}

package config

import (
	"errors"
	"fmt"
	"net"
)

// Server is the relay listener configuration.
type Server struct {
	// Address is the host:port the relay binds.
	Address string

	// ReadBufferSize is the size of one read from a peer socket.
	ReadBufferSize int
}

// Metrics is the Prometheus endpoint configuration.
type Metrics struct {
	// Address serves /metrics, /healthz and /readyz; empty disables it.
	Address string
}

// Events configures the lifecycle event stream.
type Events struct {
	// RedisAddress enables the Redis stream sink when set.
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Stream is the Redis stream key.
	Stream string

	// MaxLen caps the stream length.
	MaxLen int64
}

// Relay is the top level relay configuration.
type Relay struct {
	Server    *Server
	Logging   *Logging
	Metrics   *Metrics
	Events    *Events
	Lifecycle *Lifecycle
}

// DefaultRelay returns a relay configuration with every default applied.
func DefaultRelay() *Relay {
	cfg := new(Relay)
	cfg.applyDefaults()
	return cfg
}

func (cfg *Relay) applyDefaults() {
	if cfg.Server == nil {
		cfg.Server = new(Server)
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultRelayAddress
	}
	if cfg.Server.ReadBufferSize <= 0 {
		cfg.Server.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{File: "stdout"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultRelayLogLevel
	}
	if cfg.Metrics == nil {
		cfg.Metrics = new(Metrics)
	}
	if cfg.Events == nil {
		cfg.Events = new(Events)
	}
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = DefaultEventStream
	}
	if cfg.Events.MaxLen <= 0 {
		cfg.Events.MaxLen = DefaultEventStreamMaxLen
	}
	if cfg.Lifecycle == nil {
		cfg.Lifecycle = new(Lifecycle)
	}
	cfg.Lifecycle.applyDefaults()
}

// Validate returns nil if the config is valid and otherwise an error is
// returned.
func (cfg *Relay) Validate() error {
	if _, _, err := net.SplitHostPort(cfg.Server.Address); err != nil {
		return fmt.Errorf("config: Server: invalid Address '%v': %v", cfg.Server.Address, err)
	}
	if cfg.Server.ReadBufferSize < 64 {
		return errors.New("config: Server: ReadBufferSize must be at least 64")
	}
	if cfg.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Address); err != nil {
			return fmt.Errorf("config: Metrics: invalid Address '%v': %v", cfg.Metrics.Address, err)
		}
	}
	if cfg.Events.RedisDB < 0 {
		return errors.New("config: Events: RedisDB must not be negative")
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	return cfg.Lifecycle.validate()
}

// LoadRelay parses and validates the provided buffer b as a config file body
// and returns the Relay config.
func LoadRelay(b []byte) (*Relay, error) {
	cfg := new(Relay)
	if err := decode(b, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRelayFile loads, parses and validates the provided file and returns the
// Relay config.
func LoadRelayFile(f string) (*Relay, error) {
	b, err := readFile(f)
	if err != nil {
		return nil, err
	}
	return LoadRelay(b)
}

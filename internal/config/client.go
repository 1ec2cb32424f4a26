package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"wisper/internal/domain"
)

// Client is the chat session configuration.
type Client struct {
	// Server is the relay host or host:port. When empty the lifecycle API
	// is asked for an address.
	Server string

	// Port is used when Server carries no port.
	Port int

	// Alias is the display name; prompted for when empty.
	Alias string

	// ReadBufferSize is the size of one read from the relay socket.
	ReadBufferSize int
}

// Keyring locates the passphrase-protected key file.
type Keyring struct {
	Path string
}

// ClientConfig is the top level client configuration.
type ClientConfig struct {
	Client    *Client
	Logging   *Logging
	Lifecycle *Lifecycle
	Keyring   *Keyring
}

// DefaultClient returns a client configuration with every default applied.
func DefaultClient() *ClientConfig {
	cfg := new(ClientConfig)
	cfg.applyDefaults()
	return cfg
}

// DefaultHome returns ~/.wisper, falling back to the working directory.
func DefaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".wisper"
	}
	return filepath.Join(dir, ".wisper")
}

func (cfg *ClientConfig) applyDefaults() {
	if cfg.Client == nil {
		cfg.Client = new(Client)
	}
	if cfg.Client.Port == 0 {
		cfg.Client.Port = domain.DefaultPort
	}
	if cfg.Client.ReadBufferSize <= 0 {
		cfg.Client.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{File: "stderr"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultClientLogLevel
	}
	if cfg.Lifecycle == nil {
		cfg.Lifecycle = new(Lifecycle)
	}
	cfg.Lifecycle.applyDefaults()
	if cfg.Keyring == nil {
		cfg.Keyring = new(Keyring)
	}
	if cfg.Keyring.Path == "" {
		cfg.Keyring.Path = filepath.Join(DefaultHome(), "key.enc")
	}
}

// ServerAddress returns the host:port to dial for host, which may already
// carry a port.
func (c *Client) ServerAddress(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// Validate returns nil if the config is valid and otherwise an error is
// returned.
func (cfg *ClientConfig) Validate() error {
	if cfg.Client.Port <= 0 || cfg.Client.Port > 65535 {
		return fmt.Errorf("config: Client: invalid Port %d", cfg.Client.Port)
	}
	if cfg.Client.ReadBufferSize < 64 {
		return errors.New("config: Client: ReadBufferSize must be at least 64")
	}
	if cfg.Client.Alias != "" && !ValidAlias(cfg.Client.Alias) {
		return fmt.Errorf("config: Client: Alias '%v' must only contain alphanumeric characters", cfg.Client.Alias)
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	return cfg.Lifecycle.validate()
}

// ValidAlias reports whether alias is non-empty and alphanumeric.
func ValidAlias(alias string) bool {
	if alias == "" {
		return false
	}
	for _, r := range alias {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// LoadClient parses and validates the provided buffer b as a config file body
// and returns the client config.
func LoadClient(b []byte) (*ClientConfig, error) {
	cfg := new(ClientConfig)
	if err := decode(b, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClientFile loads, parses and validates the provided file and returns
// the client config.
func LoadClientFile(f string) (*ClientConfig, error) {
	b, err := readFile(f)
	if err != nil {
		return nil, err
	}
	return LoadClient(b)
}

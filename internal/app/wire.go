package app

import (
	"time"

	"gopkg.in/op/go-logging.v1"

	"wisper/internal/config"
	"wisper/internal/domain"
	"wisper/internal/lifecycle"
	"wisper/internal/log"
	"wisper/internal/store"
)

// Wire bundles the log backend, keyring and lifecycle client for the CLI.
type Wire struct {
	Config    *config.ClientConfig
	Log       *log.Backend
	Keyring   *store.Keyring
	Instances domain.InstanceManager // nil when no lifecycle endpoint is configured
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	cc := cfg.Client
	if cc == nil {
		cc = config.DefaultClient()
	}

	backend, err := log.New(cc.Logging.File, cc.Logging.Level, cc.Logging.Disable)
	if err != nil {
		return nil, err
	}

	w := &Wire{
		Config:  cc,
		Log:     backend,
		Keyring: store.NewKeyring(cc.Keyring.Path),
	}

	if ep := cc.Lifecycle.Endpoint; ep != "" {
		lc := lifecycle.NewHTTP(ep, time.Duration(cc.Lifecycle.TimeoutMs)*time.Millisecond, cc.Lifecycle.StartRetries)
		if cfg.HTTP != nil {
			lc.HTTP = cfg.HTTP
		}
		w.Instances = lc
	}
	return w, nil
}

// Logger returns a module logger on the wired backend.
func (w *Wire) Logger(module string) *logging.Logger {
	return w.Log.GetLogger(module)
}

// Close releases the log backend.
func (w *Wire) Close() error {
	return w.Log.Close()
}

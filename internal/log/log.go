// Package log provides a logging backend, based around the go-logging package.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/op/go-logging.v1"
)

// Backend is a log backend.
type Backend struct {
	w       io.Writer
	backend logging.LeveledBackend
}

// GetLogger returns a per-module logger that writes to the backend.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	l.SetBackend(b.backend)
	return l
}

// Close closes the underlying log file, if any.
func (b *Backend) Close() error {
	if c, ok := b.w.(io.Closer); ok && b.w != os.Stdout && b.w != os.Stderr {
		return c.Close()
	}
	return nil
}

// New initializes a logging backend. f selects the destination: "" or
// "stdout", "stderr", or a file path opened for appending.
func New(f string, level string, disable bool) (*Backend, error) {
	b := new(Backend)

	lvl, err := logLevelFromString(level)
	if err != nil {
		return nil, err
	}

	switch {
	case disable:
		b.w = io.Discard
	case f == "" || f == "stdout":
		b.w = os.Stdout
	case f == "stderr":
		b.w = os.Stderr
	default:
		const fileMode = 0600

		flags := os.O_CREATE | os.O_APPEND | os.O_WRONLY
		b.w, err = os.OpenFile(f, flags, fileMode)
		if err != nil {
			return nil, fmt.Errorf("log: failed to create log file: %v", err)
		}
	}
	b.init(lvl)
	return b, nil
}

// NewWriter initializes a backend writing to w. Intended for tests.
func NewWriter(w io.Writer, level string) (*Backend, error) {
	lvl, err := logLevelFromString(level)
	if err != nil {
		return nil, err
	}
	b := &Backend{w: w}
	b.init(lvl)
	return b, nil
}

func (b *Backend) init(lvl logging.Level) {
	logFmt := logging.MustStringFormatter("%{time:15:04:05.000} %{level:.4s} %{module}: %{message}")
	base := logging.NewLogBackend(b.w, "", 0)
	formatted := logging.NewBackendFormatter(base, logFmt)
	b.backend = logging.AddModuleLevel(formatted)
	b.backend.SetLevel(lvl, "")
}

// ValidLevel reports whether l names a log level.
func ValidLevel(l string) bool {
	_, err := logLevelFromString(l)
	return err == nil
}

func logLevelFromString(l string) (logging.Level, error) {
	switch strings.ToUpper(l) {
	case "ERROR":
		return logging.ERROR, nil
	case "WARNING":
		return logging.WARNING, nil
	case "NOTICE":
		return logging.NOTICE, nil
	case "INFO":
		return logging.INFO, nil
	case "DEBUG":
		return logging.DEBUG, nil
	default:
		return logging.CRITICAL, fmt.Errorf("log: invalid level: '%v'", l)
	}
}

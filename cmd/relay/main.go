package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"wisper/internal/config"
	"wisper/internal/events"
	"wisper/internal/lifecycle"
	"wisper/internal/log"
	"wisper/internal/obs"
	"wisper/internal/relay"
)

// Flags holds the command line configuration.
type Flags struct {
	ConfigFile string
	Address    string
	LogLevel   string
	Metrics    string
}

func newRootCommand() *cobra.Command {
	var f Flags

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "wisper relay server",
		Long: `The relay accepts chat clients over TCP and forwards every message a
client sends to all other connected clients. Chat payloads are end-to-end
encrypted by the clients; the relay only adds plaintext status notices.

The relay serves a single session and exits once the last peer disconnects.`,
		Example: `  # Serve on the default address 0.0.0.0:4440
  relay

  # Serve with a configuration file and verbose logging
  relay --config /etc/wisper/relay.toml --log-level debug

  # Expose Prometheus metrics
  relay --metrics 127.0.0.1:9440`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&f.ConfigFile, "config", "f", "", "path to the relay configuration file (TOML format)")
	cmd.Flags().StringVar(&f.Address, "address", "", "host:port to bind (default 0.0.0.0:4440)")
	cmd.Flags().StringVar(&f.LogLevel, "log-level", "", "log level: ERROR, WARNING, NOTICE, INFO or DEBUG")
	cmd.Flags().StringVar(&f.Metrics, "metrics", "", "host:port serving /metrics, /healthz and /readyz")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(
		ctx,
		newRootCommand(),
		fang.WithVersion(versioninfo.Short()),
	); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadConfig(f Flags) (*config.Relay, error) {
	cfg := config.DefaultRelay()
	if f.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadRelayFile(f.ConfigFile); err != nil {
			return nil, err
		}
	}
	if f.Address != "" {
		cfg.Server.Address = f.Address
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if f.Metrics != "" {
		cfg.Metrics.Address = f.Metrics
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runRelay(ctx context.Context, f Flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	backend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return err
	}
	defer backend.Close()
	logger := backend.GetLogger("relay")

	sinks := events.Multi{&events.LogSink{Log: backend.GetLogger("events")}}
	if ev := cfg.Events; ev.RedisAddress != "" {
		rs, err := events.NewRedisSink(ctx, events.RedisOptions{
			Addr:     ev.RedisAddress,
			Password: ev.RedisPassword,
			DB:       ev.RedisDB,
			Stream:   ev.Stream,
			MaxLen:   ev.MaxLen,
		}, backend.GetLogger("redis"))
		if err != nil {
			return err
		}
		defer rs.Close()
		sinks = append(sinks, rs)
		logger.Noticef("Publishing events to redis stream %s", ev.Stream)
	}

	srv := relay.New(cfg.Server, relay.WithLogger(logger), relay.WithSink(sinks))

	if addr := cfg.Metrics.Address; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		mctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := obs.Serve(mctx, ln, func() bool { return srv.State() == relay.StateAccepting }); err != nil {
				logger.Errorf("metrics server: %v", err)
			}
		}()
		logger.Noticef("Metrics on http://%s/metrics", ln.Addr())
	}

	serveErr := srv.ListenAndServe(ctx)

	if lc := cfg.Lifecycle; lc.StopOnDrain && serveErr == nil {
		logger.Notice("Stopping server instance...")
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Duration(lc.TimeoutMs)*time.Millisecond)
		defer cancel()
		if err := lifecycle.NewHTTP(lc.Endpoint, time.Duration(lc.TimeoutMs)*time.Millisecond, lc.StartRetries).RequestStop(stopCtx); err != nil {
			logger.Errorf("stop instance: %v", err)
		}
	}
	return serveErr
}

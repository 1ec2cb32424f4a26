package commands

import (
	"context"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"wisper/internal/app"
	"wisper/internal/config"
)

var (
	configFile  string
	logLevel    string
	keyringPath string
	endpoint    string
	passphrase  string

	appWire *app.Wire
)

func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "wisper",
		Short: "End-to-end encrypted group chat through a relay",
		Long: `wisper connects to a relay server and chats with every other peer
connected to it. Messages are sealed with a secret key shared out of band;
the relay only ever sees ciphertext.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			appWire, err = app.NewWire(app.Config{Client: cfg})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appWire != nil {
				return appWire.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "f", "", "path to a TOML client configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: ERROR, WARNING, NOTICE, INFO or DEBUG")
	root.PersistentFlags().StringVar(&keyringPath, "keyring-path", "", "key file location (default ~/.wisper/key.enc)")
	root.PersistentFlags().StringVar(&endpoint, "endpoint", "", "lifecycle API URL that starts and stops the relay host")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the saved key")

	root.AddCommand(chatCmd(), keygenCmd(), fingerprintCmd(), instanceCmd())

	return fang.Execute(ctx, root, fang.WithVersion(versioninfo.Short()))
}

func loadConfig() (*config.ClientConfig, error) {
	cfg := config.DefaultClient()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadClientFile(configFile); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if keyringPath != "" {
		cfg.Keyring.Path = keyringPath
	}
	if endpoint != "" {
		cfg.Lifecycle.Endpoint = endpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"wisper/internal/crypto"
)

// chatCmd runs the interactive session: collect key and alias while the
// relay host boots, then connect.
func chatCmd() *cobra.Command {
	var (
		server     string
		alias      string
		useKeyring bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			cfg := appWire.Config

			if server == "" {
				server = cfg.Client.Server
			}
			if alias == "" {
				alias = cfg.Client.Alias
			}

			pending := appWire.Resolve(ctx, server)
			if pending.Started() {
				fmt.Fprintln(out, "Starting server instance...")
			}
			abandon := func(err error) error {
				if ctx.Err() != nil {
					if serr := appWire.Abandon(pending); serr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "stop instance: %v\n", serr)
					}
					return nil
				}
				return err
			}

			pr := newPrompter(cmd.InOrStdin(), out)

			var key crypto.Key
			if useKeyring {
				pass := passphrase
				if pass == "" {
					var err error
					if pass, err = pr.passphrase(ctx, false); err != nil {
						return abandon(err)
					}
				}
				k, err := appWire.Keyring.Load(pass)
				if err != nil {
					return abandon(err)
				}
				key = k
			} else {
				if err := pr.offerNewKey(ctx); err != nil {
					return abandon(err)
				}
				k, err := pr.secretKey(ctx)
				if err != nil {
					return abandon(err)
				}
				key = k
			}
			defer crypto.WipeKey(&key)
			fmt.Fprintf(out, "Key fingerprint: %s\n", crypto.Fingerprint(key))

			if alias == "" {
				a, err := pr.alias(ctx)
				if err != nil {
					return abandon(err)
				}
				alias = a
			}

			if pending.Started() {
				fmt.Fprintln(out, "Running server checks...")
			}
			addr, err := pending.Wait(ctx)
			if err != nil {
				return abandon(err)
			}
			if pending.Started() {
				fmt.Fprintln(out, "Server started")
			}

			fmt.Fprintln(out, "Establishing connection with server...")
			return abandon(appWire.Chat(ctx, addr, key, alias, pr.r, out))
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "", "relay host or host:port (default: start one through the lifecycle API)")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "display name for this session")
	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "load the secret key from the keyring instead of prompting")
	return cmd
}

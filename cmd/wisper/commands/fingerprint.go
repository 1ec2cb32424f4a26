package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"wisper/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	var useKeyring bool
	cmd := &cobra.Command{
		Use:   "fingerprint [key]",
		Short: "Print the fingerprint of a secret key",
		Long: `Print a short fingerprint of a secret key so peers can confirm they
hold the same key without revealing it. The key is taken from the argument,
the keyring, or a prompt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				key crypto.Key
				err error
			)
			pr := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			switch {
			case len(args) == 1:
				key, err = crypto.ParseKey(args[0])
			case useKeyring:
				pass := passphrase
				if pass == "" {
					if pass, err = pr.passphrase(cmd.Context(), false); err != nil {
						return err
					}
				}
				key, err = appWire.Keyring.Load(pass)
			default:
				key, err = pr.secretKey(cmd.Context())
			}
			if err != nil {
				return err
			}
			defer crypto.WipeKey(&key)

			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", crypto.Fingerprint(key))
			return nil
		},
	}
	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "read the key from the keyring")
	return cmd
}

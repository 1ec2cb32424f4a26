package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"wisper/internal/crypto"
)

func keygenCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a shared secret key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			key := crypto.GenerateKey()
			defer crypto.WipeKey(&key)

			fmt.Fprintf(out, "New secret key: %s\nFingerprint: %s\n", key, crypto.Fingerprint(key))
			if !save {
				return nil
			}

			pass := passphrase
			if pass == "" {
				var err error
				pass, err = newPrompter(cmd.InOrStdin(), out).passphrase(cmd.Context(), true)
				if err != nil {
					return err
				}
			}
			if err := appWire.Keyring.Save(pass, key); err != nil {
				return err
			}
			fmt.Fprintf(out, "Key saved to %s\n", appWire.Keyring.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "seal the key into the keyring under a passphrase")
	return cmd
}

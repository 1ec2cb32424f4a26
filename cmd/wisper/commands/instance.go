package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoEndpoint = errors.New("no lifecycle endpoint configured. use --endpoint")

func instanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Start or stop the relay host",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Boot the relay host and print its address",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if appWire.Instances == nil {
					return errNoEndpoint
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Starting server instance...")
				addr, err := appWire.Instances.RequestStart(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Server started at %s\n", appWire.Config.Client.ServerAddress(addr))
				return nil
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Power the relay host down",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if appWire.Instances == nil {
					return errNoEndpoint
				}
				if err := appWire.Instances.RequestStop(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
				return nil
			},
		},
	)
	return cmd
}

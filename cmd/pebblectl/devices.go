package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/cobblecorex/contrib/bluezx"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Lists the paired watches BlueZ knows about",
	RunE: func(cmd *cobra.Command, args []string) error {
		lister, err := bluezx.ConnectSystemBus()
		if err != nil {
			return err
		}

		watches, err := lister.PairedWatches(cmd.Context())
		if err != nil {
			return err
		}

		for _, watch := range watches {
			state := "disconnected"
			if watch.Connected {
				state = "connected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", watch.Address, watch.Alias, state)
		}
		return nil
	},
}

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/cobblecorex"
	"github.com/pebble-dev/cobblecorex/pebblex"
)

var listenCmd = &cobra.Command{
	Use:   "listen [endpoint...]",
	Short: "Prints packets the watch sends on its own until interrupted",
	Long: `Prints every packet the watch sends without being asked, limited to the
given endpoint ids (for example 0x07d6 for logs) if any are given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var endpoints []pebblex.Endpoint
		for _, arg := range args {
			id, err := strconv.ParseUint(arg, 0, 16)
			if err != nil {
				return fmt.Errorf("invalid endpoint %s: %w", arg, err)
			}
			endpoints = append(endpoints, pebblex.Endpoint(id))
		}

		return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
			sub := conn.Subscribe(endpoints...)
			defer sub.Close()

			for {
				pak, err := sub.Next(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					if errors.Is(err, cobblecorex.ErrSubscriptionClosed) {
						return conn.Err()
					}
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", pak.Endpoint, hex.EncodeToString(pak.Payload))
			}
		})
	},
}

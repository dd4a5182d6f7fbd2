package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pebble-dev/cobblecorex"
)

var (
	notifyCommands = &cobra.Command{
		Use:   "notify",
		Short: "Show and dismiss notifications",
	}
	notifyInsertCmd = &cobra.Command{
		Use:   "insert [id] [file]",
		Short: "Shows a serialized notification item read from a file, or - for stdin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			item, err := readValue(cmd, args[1])
			if err != nil {
				return err
			}

			return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
				status, err := conn.InsertNotification(ctx, id, item)
				return reportStatus(cmd, status, err)
			})
		},
	}
	notifyDismissCmd = &cobra.Command{
		Use:   "dismiss [id]",
		Short: "Dismisses a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
				status, err := conn.DismissNotification(ctx, id)
				return reportStatus(cmd, status, err)
			})
		},
	}
)

func init() {
	notifyCommands.AddCommand(notifyInsertCmd)
	notifyCommands.AddCommand(notifyDismissCmd)
}

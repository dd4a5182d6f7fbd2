package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/cobblecorex"
	"github.com/pebble-dev/cobblecorex/pebblex"
)

var (
	blobDBCommands = &cobra.Command{
		Use:   "blobdb",
		Short: "Write to the key/value databases on the watch",
	}
	blobInsertCmd = &cobra.Command{
		Use:   "insert [db] [key] [file]",
		Short: "Inserts the contents of a file, or - for stdin, under a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseDatabase(args[0])
			if err != nil {
				return err
			}
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}
			value, err := readValue(cmd, args[2])
			if err != nil {
				return err
			}

			return submitBlobCommand(cmd, pebblex.NewInsertCommand(db, key, value))
		},
	}
	blobDeleteCmd = &cobra.Command{
		Use:   "delete [db] [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseDatabase(args[0])
			if err != nil {
				return err
			}
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}

			return submitBlobCommand(cmd, pebblex.NewDeleteCommand(db, key))
		},
	}
	blobClearCmd = &cobra.Command{
		Use:   "clear [db]",
		Short: "Deletes every key of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseDatabase(args[0])
			if err != nil {
				return err
			}

			return submitBlobCommand(cmd, pebblex.NewClearCommand(db))
		},
	}
)

func init() {
	blobDBCommands.AddCommand(blobInsertCmd)
	blobDBCommands.AddCommand(blobDeleteCmd)
	blobDBCommands.AddCommand(blobClearCmd)
}

func submitBlobCommand(cmd *cobra.Command, blobCmd *pebblex.BlobCommand) error {
	return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
		resp, err := conn.Submit(ctx, blobCmd)
		return reportStatus(cmd, cobblecorex.StatusOf(resp, err), err)
	})
}

package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pebble-dev/cobblecorex"
)

var (
	appsCommands = &cobra.Command{
		Use:   "apps",
		Short: "Manage the apps on the watch",
	}
	appsInsertCmd = &cobra.Command{
		Use:   "insert [id] [file]",
		Short: "Inserts serialized app metadata read from a file, or - for stdin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			appBlob, err := readValue(cmd, args[1])
			if err != nil {
				return err
			}

			return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
				status, err := conn.InsertApp(ctx, id, appBlob)
				return reportStatus(cmd, status, err)
			})
		},
	}
	appsRemoveCmd = &cobra.Command{
		Use:   "remove [id]",
		Short: "Removes an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
				status, err := conn.RemoveApp(ctx, id)
				return reportStatus(cmd, status, err)
			})
		},
	}
	appsClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Removes every app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
				status, err := conn.RemoveAllApps(ctx)
				return reportStatus(cmd, status, err)
			})
		},
	}
	appsReorderCmd = &cobra.Command{
		Use:   "reorder [id...]",
		Short: "Orders the app menu as given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseUUIDs(args)
			if err != nil {
				return err
			}

			return withConnection(cmd, func(ctx context.Context, conn *cobblecorex.Connection) error {
				status, err := conn.ReorderApps(ctx, ids)
				return reportStatus(cmd, status, err)
			})
		},
	}
)

func init() {
	appsCommands.AddCommand(appsInsertCmd)
	appsCommands.AddCommand(appsRemoveCmd)
	appsCommands.AddCommand(appsClearCmd)
	appsCommands.AddCommand(appsReorderCmd)
}

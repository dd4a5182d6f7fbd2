package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex"
	"github.com/pebble-dev/cobblecorex/contrib/buildversion"
	"github.com/pebble-dev/cobblecorex/pebblex"
)

var (
	// RootCmd is the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "pebblectl",
		Short: "talk to a Pebble watch",
		Long: `pebblectl drives the phone side of the Pebble protocol against a
watch or an emulator, over bluetooth RFCOMM, TCP or a websocket.`,
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version of pebblectl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pebblectl %s\n", buildversion.GetVersion("github.com/pebble-dev/cobblecorex"))
		},
	}

	// dialTransport replaces the transport dialer when set.
	dialTransport cobblecorex.DialTransportFunc
)

func init() {
	cobra.OnInitialize(initConfig)

	setupConnectionFlags(RootCmd)
	setupLoggingFlags(RootCmd)

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(blobDBCommands)
	RootCmd.AddCommand(notifyCommands)
	RootCmd.AddCommand(appsCommands)
	RootCmd.AddCommand(listenCmd)
	RootCmd.AddCommand(devicesCmd)
}

// Execute runs the root command and exits non-zero on failure.  Interrupting
// the process cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// withConnection connects to the configured watch, runs fn and disconnects.
func withConnection(cmd *cobra.Command, fn func(ctx context.Context, conn *cobblecorex.Connection) error) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	logger, err := newLogger(getLogConfig())
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	device, err := getDevice()
	if err != nil {
		return err
	}

	dialOpts, err := getDialOptions()
	if err != nil {
		return err
	}

	retryManager, err := getRetryManager()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	dialCtx, cancel := context.WithTimeout(ctx, viper.GetDuration("connect-timeout"))
	defer cancel()

	conn := cobblecorex.Connect(dialCtx, device, &cobblecorex.ConnectionOptions{
		Logger:         logger,
		DialTransport:  dialTransport,
		DialOptions:    dialOpts,
		RequestTimeout: viper.GetDuration("request-timeout"),
		RetryManager:   retryManager,
	})
	defer func() {
		_ = conn.Close()
		<-conn.Done()
	}()

	if err := conn.WaitConnected(dialCtx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", device, err)
	}
	logger.Debug("connected", zap.Stringer("device", device))

	return fn(ctx, conn)
}

// reportStatus prints the watch's answer and turns anything but Success
// into an error so the exit code reflects it.
func reportStatus(cmd *cobra.Command, status pebblex.BlobStatus, err error) error {
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "status=%s\n", status)
	if status != pebblex.BlobStatusSuccess {
		return fmt.Errorf("watch answered %s", status)
	}
	return nil
}

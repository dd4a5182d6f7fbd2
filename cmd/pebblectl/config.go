package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pebble-dev/cobblecorex"
	"github.com/pebble-dev/cobblecorex/pebblex"
)

// initConfig loads .env files and maps PEBBLECTL_* variables onto flags.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("pebblectl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setupConnectionFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("address", "", "MAC address, host:port or ws:// URL of the watch")
	flags.String("transport", string(pebblex.TransportRFCOMM), "transport to use (rfcomm, tcp, ws)")
	flags.String("name", "", "display name of the watch")
	flags.Uint("rfcomm-channel", uint(pebblex.DefaultRFCOMMChannel), "RFCOMM channel of the serial port profile")
	flags.Duration("connect-timeout", 30*time.Second, "how long to wait for the connection")
	flags.Duration("request-timeout", cobblecorex.DefaultRequestTimeout, "how long to wait for each answer")
	flags.String("retry-backoff", "fixed", "wait between TryLater retries (fixed, exponential)")
	flags.Uint32("max-retries", 0, "how often to repeat a TryLater answer, 0 retries until the command is interrupted")
}

// RFCOMM channels are numbered 1 to 30.
const maxRFCOMMChannel = 30

func getDialOptions() (*pebblex.DialConnOptions, error) {
	channel := viper.GetUint("rfcomm-channel")
	if channel < 1 || channel > maxRFCOMMChannel {
		return nil, fmt.Errorf("invalid rfcomm channel %d, must be between 1 and %d", channel, maxRFCOMMChannel)
	}

	return &pebblex.DialConnOptions{RFCOMMChannel: uint8(channel)}, nil
}

const maxExponentialBackoff = 30 * time.Second

func getRetryManager() (*cobblecorex.RetryManagerTryLater, error) {
	var backoff cobblecorex.BackoffCalculator
	switch mode := strings.ToLower(viper.GetString("retry-backoff")); mode {
	case "", "fixed":
		backoff = cobblecorex.FixedBackoff(cobblecorex.DefaultTryLaterInterval)
	case "exponential":
		backoff = cobblecorex.ExponentialBackoff(cobblecorex.DefaultTryLaterInterval, maxExponentialBackoff, 2)
	default:
		return nil, fmt.Errorf("invalid retry backoff %s", mode)
	}

	return cobblecorex.NewRetryManagerTryLater(&cobblecorex.RetryManagerTryLaterOptions{
		Backoff:    backoff,
		MaxRetries: viper.GetUint32("max-retries"),
	}), nil
}

func getDevice() (cobblecorex.DeviceHandle, error) {
	address := viper.GetString("address")
	if address == "" {
		return cobblecorex.DeviceHandle{}, fmt.Errorf("no watch address given, use --address or PEBBLECTL_ADDRESS")
	}

	kind := pebblex.TransportKind(strings.ToLower(viper.GetString("transport")))
	switch kind {
	case pebblex.TransportRFCOMM, pebblex.TransportTCP, pebblex.TransportWebsocket:
	default:
		return cobblecorex.DeviceHandle{}, fmt.Errorf("invalid transport %s", kind)
	}

	return cobblecorex.DeviceHandle{
		Address:   address,
		Transport: kind,
		Name:      viper.GetString("name"),
	}, nil
}

var databaseNames = map[string]pebblex.BlobDatabase{
	"test":         pebblex.BlobDatabaseTest,
	"pin":          pebblex.BlobDatabasePin,
	"app":          pebblex.BlobDatabaseApp,
	"reminder":     pebblex.BlobDatabaseReminder,
	"notification": pebblex.BlobDatabaseNotification,
	"weather":      pebblex.BlobDatabaseWeather,
	"appglance":    pebblex.BlobDatabaseAppGlance,
}

// parseDatabase accepts a database name or its numeric id.
func parseDatabase(s string) (pebblex.BlobDatabase, error) {
	if db, ok := databaseNames[strings.ToLower(s)]; ok {
		return db, nil
	}

	id, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown database %s", s)
	}
	return pebblex.BlobDatabase(id), nil
}

// parseKey accepts a UUID, 0x-prefixed hex or plain text.
func parseKey(s string) ([]byte, error) {
	if id, err := uuid.Parse(s); err == nil {
		return id[:], nil
	}

	if hexStr, ok := strings.CutPrefix(s, "0x"); ok {
		key, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("invalid hex key: %w", err)
		}
		return key, nil
	}

	if s == "" {
		return nil, fmt.Errorf("key must not be empty")
	}
	return []byte(s), nil
}

// readValue returns the bytes of path, or stdin when path is "-".
func readValue(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}

	return os.ReadFile(path)
}

func parseUUIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %s: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

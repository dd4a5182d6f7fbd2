package testutils

import (
	"flag"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex/contrib/leakcheck"
)

var TestOpts TestOptions

type TestOptions struct {
	WatchAddress      string
	WatchTransport    string
	LongTest          bool
	SupportedFeatures []TestFeature
	RunName           string
}

func envFlagString(envName, name, value, usage string) *string {
	envValue := os.Getenv(envName)
	if envValue != "" {
		value = envValue
	}
	return flag.String(name, value, usage)
}

var watchAddr = envFlagString("PEBBLE_ADDR", "watch-addr", "",
	"Address of a real watch or emulator to run tests against")
var watchTransport = envFlagString("PEBBLE_TRANSPORT", "watch-transport", "tcp",
	"The transport used to reach the watch (rfcomm, tcp or ws)")
var featsStr = envFlagString("PEBBLE_FEAT", "features", "",
	"A comma-delimited list of watch features to test")

// SetupTests parses the test flags, runs the tests and fails the run if
// goroutines or transports leaked.
func SetupTests(m *testing.M) {
	initialGoroutineCount := runtime.NumGoroutine()
	flag.Parse()

	// a watch is only talked to when one is configured and the run was not
	// asked to be short.
	if *watchAddr != "" && !testing.Short() {
		TestOpts.LongTest = true
		TestOpts.WatchAddress = *watchAddr
		TestOpts.WatchTransport = *watchTransport
	}

	TestOpts.SupportedFeatures = parseFeatureList(*featsStr)
	TestOpts.RunName = strings.ReplaceAll(uuid.NewString(), "-", "")[0:8]

	leakcheck.EnableAll()

	result := m.Run()
	if !leakcheck.ReportAll(initialGoroutineCount) {
		result = 1
	}

	os.Exit(result)
}

func SkipIfShortTest(t *testing.T) {
	if !TestOpts.LongTest {
		t.Skipf("skipping long test")
	}
}

func MakeTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	return logger
}

package leakcheck

import (
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"time"
)

// ReportLeakedGoroutines waits up to a second for the goroutine count to
// fall back to expectedGoroutineCount, dumping every goroutine stack when
// it does not.
func ReportLeakedGoroutines(expectedGoroutineCount int) bool {
	goroutineCleanupPeriod := 1 * time.Second

	var finalGoroutineCount int
	start := time.Now()
	for time.Since(start) <= goroutineCleanupPeriod {
		runtime.Gosched()

		finalGoroutineCount = runtime.NumGoroutine()
		if finalGoroutineCount <= expectedGoroutineCount {
			break
		}

		time.Sleep(10 * time.Millisecond)
	}

	if finalGoroutineCount > expectedGoroutineCount {
		log.Printf("Detected a goroutine leak (%d goroutines != %d)", finalGoroutineCount, expectedGoroutineCount)
		pprof.Lookup("goroutine").WriteTo(os.Stdout, 1)
		return false
	}

	log.Printf("No goroutines appear to have leaked (%d before == %d after)", expectedGoroutineCount, finalGoroutineCount)
	return true
}

package leakcheck

import (
	"io"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

var transportTrackingEnabled uint32 = 0
var trackedTransportsLock sync.Mutex
var trackedTransports []*leakTrackingTransport

func EnableTransportTracking() {
	atomic.StoreUint32(&transportTrackingEnabled, 1)
}

// WrapTransport records where a transport was opened so that transports
// which are never closed can be reported at the end of a test run.
func WrapTransport(rwc io.ReadWriteCloser) io.ReadWriteCloser {
	if atomic.LoadUint32(&transportTrackingEnabled) == 0 {
		return rwc
	}

	tracked := &leakTrackingTransport{
		parent:     rwc,
		stackTrace: debug.Stack(),
	}

	trackedTransportsLock.Lock()
	trackedTransports = append(trackedTransports, tracked)
	trackedTransportsLock.Unlock()

	return tracked
}

func removeTrackedTransportRecord(l *leakTrackingTransport) {
	trackedTransportsLock.Lock()
	recordIdx := slices.Index(trackedTransports, l)
	if recordIdx >= 0 {
		trackedTransports = slices.Delete(trackedTransports, recordIdx, recordIdx+1)
	}
	trackedTransportsLock.Unlock()
}

func ReportLeakedTransports() bool {
	trackedTransportsLock.Lock()
	defer trackedTransportsLock.Unlock()

	if len(trackedTransports) == 0 {
		log.Printf("No leaked transports")
		return true
	}

	log.Printf("Found %d leaked transports", len(trackedTransports))
	for _, leakRecord := range trackedTransports {
		log.Printf("Leaked transport stack: %s", leakRecord.stackTrace)
	}

	return false
}

type leakTrackingTransport struct {
	parent     io.ReadWriteCloser
	stackTrace []byte
}

func (l *leakTrackingTransport) Read(p []byte) (int, error) {
	return l.parent.Read(p)
}

func (l *leakTrackingTransport) Write(p []byte) (int, error) {
	return l.parent.Write(p)
}

func (l *leakTrackingTransport) Close() error {
	removeTrackedTransportRecord(l)
	return l.parent.Close()
}

var _ io.ReadWriteCloser = (*leakTrackingTransport)(nil)

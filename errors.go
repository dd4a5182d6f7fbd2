package cobblecorex

import (
	"errors"
	"fmt"

	"github.com/pebble-dev/cobblecorex/pebblex"
)

var (
	// ErrWatchDisconnected is matched by every error which means no answer
	// could be obtained from the watch.  The cause is available through
	// errors.Unwrap.
	ErrWatchDisconnected = errors.New("watch disconnected")

	// ErrRequestTimeout is the cause of a WatchDisconnectedError when the
	// watch did not answer a request within the request timeout.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrNotConnected is the cause of a WatchDisconnectedError when a request
	// is made on a connection which is not in the Connected state.
	ErrNotConnected = errors.New("not connected")

	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrConnectionClosed   = errors.New("connection closed")

	// ErrTryLater is used internally to signal the retry orchestrator that
	// the watch asked for the request to be repeated.
	ErrTryLater = errors.New("watch asked to try later")
)

type WatchDisconnectedError struct {
	Cause error
}

func (e *WatchDisconnectedError) Error() string {
	return fmt.Sprintf("watch disconnected: %s", e.Cause)
}

func (e *WatchDisconnectedError) Is(target error) bool {
	return target == ErrWatchDisconnected
}

func (e *WatchDisconnectedError) Unwrap() error {
	return e.Cause
}

// AppReorderError is returned when the watch answered an app reorder request
// with anything but success.
type AppReorderError struct {
	Result pebblex.AppOrderResultCode
}

func (e *AppReorderError) Error() string {
	return fmt.Sprintf("watch rejected app reorder: %s", e.Result)
}

type retrierDeadlineError struct {
	Cause      error
	RetryCause error
}

func (e retrierDeadlineError) Error() string {
	if e.RetryCause != nil {
		return fmt.Sprintf("timed out during retrying: %s (retry cause: %s)", e.Cause, e.RetryCause)
	} else {
		return fmt.Sprintf("timed out during retrying: %s", e.Cause)
	}
}

func (e retrierDeadlineError) Unwrap() error {
	return e.Cause
}

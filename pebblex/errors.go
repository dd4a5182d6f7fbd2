package pebblex

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when an operation is attempted on a client or
	// connection which has already been shut down.
	ErrClosed = errors.New("connection closed")

	// ErrClosedInFlight is delivered to every pending request which was still
	// waiting for a response when the connection was torn down.
	ErrClosedInFlight = errors.New("connection closed while request was in flight")

	// ErrNeedMoreData indicates that a frame could not be decoded yet because
	// the buffer ends before the frame does.
	ErrNeedMoreData = errors.New("need more data")

	ErrMalformedFrame       = errors.New("malformed frame")
	ErrTransportUnsupported = errors.New("transport not supported on this platform")
	ErrNoTokensAvailable    = errors.New("no free request tokens")
)

var ErrProtocol = errors.New("protocol error")

type protocolError struct {
	message string
}

func (e protocolError) Error() string {
	return "protocol error: " + e.message
}

func (e protocolError) Unwrap() error {
	return ErrProtocol
}

// MalformedFrameError describes bytes which were discarded by the frame
// decoder while searching for the next frame boundary.
type MalformedFrameError struct {
	Reason    string
	Discarded int
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame: %s (discarded %d bytes)", e.Reason, e.Discarded)
}

func (e *MalformedFrameError) Unwrap() error {
	return ErrMalformedFrame
}

type requestCancelledError struct {
	cause error
}

func (e requestCancelledError) Error() string {
	return fmt.Sprintf("request cancelled: %s", e.cause)
}

func (e requestCancelledError) Unwrap() error {
	return e.cause
}

// ConnectError is returned when a transport could not be established.
type ConnectError struct {
	Transport string
	Address   string
	Cause     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect %s transport to %s: %s", e.Transport, e.Address, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

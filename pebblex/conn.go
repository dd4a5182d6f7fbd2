package pebblex

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/pebble-dev/cobblecorex/contrib/leakcheck"
)

// Transport is the raw byte stream to the watch.  It has no knowledge of
// framing.  Only a single reader and a single writer use it at any time.
type Transport interface {
	io.ReadWriteCloser
}

type TransportKind string

const (
	TransportRFCOMM    = TransportKind("rfcomm")
	TransportTCP       = TransportKind("tcp")
	TransportWebsocket = TransportKind("ws")
)

// Conn owns the only handle to a Transport and guarantees that the
// transport is closed exactly once, however many times Close is called.
type Conn struct {
	transport Transport
	kind      TransportKind
	address   string

	closeOnce sync.Once
	closed    atomic.Bool
}

func NewConn(transport Transport, kind TransportKind, address string) *Conn {
	return &Conn{
		transport: transport,
		kind:      kind,
		address:   address,
	}
}

type DialConnOptions struct {
	// RFCOMMChannel is the serial port channel on the watch, which is 1
	// unless the watch advertises something else over SDP.
	RFCOMMChannel uint8

	// WebsocketHeader is sent along with the websocket handshake.
	WebsocketHeader http.Header
}

// DialConn establishes a transport of the given kind to address.  RFCOMM
// addresses are bluetooth MAC addresses, TCP addresses are host:port pairs
// and websocket addresses are ws:// or wss:// URLs.
func DialConn(ctx context.Context, kind TransportKind, address string, opts *DialConnOptions) (*Conn, error) {
	if opts == nil {
		opts = &DialConnOptions{}
	}

	var transport Transport
	var err error
	switch kind {
	case TransportRFCOMM:
		channel := opts.RFCOMMChannel
		if channel == 0 {
			channel = DefaultRFCOMMChannel
		}
		transport, err = dialRFCOMM(ctx, address, channel)
	case TransportTCP:
		var dialer net.Dialer
		transport, err = dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			err = pkgerrors.Wrap(err, "tcp dial")
		}
	case TransportWebsocket:
		transport, err = dialWebsocket(ctx, address, opts.WebsocketHeader)
	default:
		err = pkgerrors.Errorf("unknown transport kind %q", kind)
	}
	if err != nil {
		return nil, &ConnectError{
			Transport: string(kind),
			Address:   address,
			Cause:     err,
		}
	}

	return NewConn(leakcheck.WrapTransport(transport), kind, address), nil
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.transport.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.transport.Write(p)
}

// Close closes the underlying transport.  Only the first call reaches the
// transport, later calls do nothing and return nil.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.transport.Close()
	})
	return err
}

func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

func (c *Conn) Kind() TransportKind {
	return c.kind
}

func (c *Conn) Address() string {
	return c.address
}

package pebblex

import (
	"context"
	"errors"
	"os"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex/contrib/ubqueue"
)

var enablePacketLogging bool = os.Getenv("COBBLE_PACKET_LOGGING") != ""

// Client drives a single connection to a watch.  It runs a read loop, which
// decodes frames and routes them either to the request waiting on their
// token or to the unsolicited handler, and a send loop which writes queued
// frames in the order they were queued.  When either loop stops, for any
// reason, the other one is stopped too, the transport is closed exactly once
// and every request still waiting for a response is failed.
type Client struct {
	conn               Transport
	unsolicitedHandler func(*Packet)
	malformedHandler   func(error)
	closeHandler       func(error)
	logger             *zap.Logger

	tokens    *TokenMap
	sendQueue *ubqueue.Queue[[]byte]

	closed       atomic.Bool
	shutdownOnce sync.Once
	closeErr     error
	sendDoneCh   chan struct{}
	doneCh       chan struct{}
}

var _ Dispatcher = (*Client)(nil)
var _ PacketSender = (*Client)(nil)

type ClientOptions struct {
	// UnsolicitedHandler receives every packet which does not resolve a
	// pending request.  It is invoked from the read loop and must not block.
	UnsolicitedHandler func(*Packet)

	// MalformedHandler is told about corrupt bytes which were skipped.
	MalformedHandler func(error)

	// CloseHandler is invoked once both loops have stopped.  The error is
	// nil when the client was closed locally.
	CloseHandler func(error)

	Logger *zap.Logger
}

func NewClient(conn Transport, opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		conn:               conn,
		unsolicitedHandler: opts.UnsolicitedHandler,
		malformedHandler:   opts.MalformedHandler,
		closeHandler:       opts.CloseHandler,
		logger:             logger,

		tokens:     NewTokenMap(),
		sendQueue:  ubqueue.New[[]byte](),
		sendDoneCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	go c.sendLoop()
	go c.readLoop()

	return c
}

func (c *Client) sendLoop() {
	defer close(c.sendDoneCh)

	for {
		frame, err := c.sendQueue.Pop(context.Background())
		if err != nil {
			return
		}

		_, err = c.conn.Write(frame)
		if err != nil {
			c.logger.Debug("failed to write frame", zap.Error(err))
			c.shutdown(err)
			return
		}
	}
}

func (c *Client) readLoop() {
	reader := &PacketReader{}

	var readErr error
	for {
		pak := &Packet{}
		err := reader.ReadPacket(c.conn, pak)
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				c.logger.Warn("skipped malformed bytes", zap.Error(err))
				if c.malformedHandler != nil {
					c.malformedHandler(err)
				}
				continue
			}

			readErr = err
			break
		}

		c.dispatchPacket(pak)
	}

	c.shutdown(readErr)

	// the send loop must never outlive the read loop, so teardown is not
	// complete until it has stopped as well.
	<-c.sendDoneCh
	close(c.doneCh)

	if c.closeHandler != nil {
		c.closeHandler(c.closeErr)
	}
}

func (c *Client) dispatchPacket(pak *Packet) {
	if enablePacketLogging {
		c.logger.Debug("read packet",
			zap.Stringer("endpoint", pak.Endpoint),
			zap.Binary("payload", pak.Payload),
		)
	}

	if token, ok := pak.Token(); ok {
		if c.tokens.Invoke(token, pak) {
			return
		}

		c.logger.Debug("response did not match a pending request",
			zap.Uint16("token", token))
	}

	unsolicitedHandler := c.unsolicitedHandler
	if unsolicitedHandler == nil {
		c.logger.Debug("dropping unsolicited packet",
			zap.Stringer("endpoint", pak.Endpoint))
		return
	}

	unsolicitedHandler(pak)
}

// shutdown tears the connection down.  Only the first call does anything,
// err is recorded as the reason the connection ended.
func (c *Client) shutdown(err error) {
	c.shutdownOnce.Do(func() {
		c.closeErr = err
		c.closed.Store(true)

		dropped := c.sendQueue.Abort()

		closeErr := c.conn.Close()
		if closeErr != nil {
			c.logger.Debug("failed to close transport", zap.Error(closeErr))
		}

		cancelled := c.tokens.CancelAll(ErrClosedInFlight)

		c.logger.Debug("connection shut down",
			zap.Error(err),
			zap.Int("droppedFrames", len(dropped)),
			zap.Int("cancelledRequests", cancelled),
		)
	})
}

// Close stops both loops and fails all pending requests.  It does not wait
// for the loops to exit, use Done for that.  It is safe to call any number
// of times.
func (c *Client) Close() error {
	c.shutdown(nil)
	return nil
}

// Done is closed once both loops have stopped and the transport is closed.
func (c *Client) Done() <-chan struct{} {
	return c.doneCh
}

// Err returns the reason the connection ended.  It is only meaningful once
// Done has been closed, and is nil after a local Close.
func (c *Client) Err() error {
	select {
	case <-c.doneCh:
		return c.closeErr
	default:
		return nil
	}
}

func (c *Client) IsClosed() bool {
	return c.closed.Load()
}

// PendingRequests returns the number of requests waiting for a response.
func (c *Client) PendingRequests() int {
	return c.tokens.Len()
}

// HasPendingToken reports whether a request is waiting on token.
func (c *Client) HasPendingToken(token uint16) bool {
	return c.tokens.Has(token)
}

// WritePacket queues a packet which expects no correlated response.
func (c *Client) WritePacket(pak *Packet) error {
	if c.closed.Load() {
		return ErrClosed
	}

	frame, err := AppendFrame(nil, pak)
	if err != nil {
		return err
	}

	if enablePacketLogging {
		c.logger.Debug("writing packet",
			zap.Stringer("endpoint", pak.Endpoint),
			zap.Binary("payload", pak.Payload),
		)
	}

	if err := c.sendQueue.Push(frame); err != nil {
		return ErrClosed
	}
	return nil
}

// Dispatch queues a request and calls handler with its response.  Note that
// the handler can be invoked before this function returns due to races
// between this function returning and the read loop receiving responses.
// You are guaranteed however to either receive a callback OR receive an
// error from this call, never both.
func (c *Client) Dispatch(endpoint Endpoint, encode PayloadEncoder, handler DispatchCallback) (PendingOp, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	token, err := c.tokens.Register(handler)
	if err != nil {
		return nil, err
	}

	payload, err := encode(token)
	if err != nil {
		c.tokens.Remove(token)
		return nil, err
	}

	pak := &Packet{
		Endpoint: endpoint,
		Payload:  payload,
	}
	frame, err := AppendFrame(nil, pak)
	if err != nil {
		c.tokens.Remove(token)
		return nil, err
	}

	if enablePacketLogging {
		c.logger.Debug("writing packet",
			zap.Stringer("endpoint", pak.Endpoint),
			zap.Uint16("token", token),
			zap.Binary("payload", pak.Payload),
		)
	}

	err = c.sendQueue.Push(frame)
	if err != nil {
		if c.tokens.Remove(token) {
			return nil, ErrClosed
		}

		// if the token isn't in the map anymore, teardown already resolved
		// the handler while we were queueing, so we pretend the write went
		// through since the callback was already invoked.
		return pendingOpNoop{}, nil
	}

	return clientPendingOp{
		client: c,
		token:  token,
	}, nil
}

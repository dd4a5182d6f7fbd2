package cobblecorex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex/pebblex"
	"github.com/pebble-dev/cobblecorex/zaputils"
)

// DefaultReorderTimeout bounds how long ReorderApps waits for the watch.
const DefaultReorderTimeout = 10 * time.Second

// DeviceHandle identifies a watch and how to reach it.
type DeviceHandle struct {
	Address   string
	Transport pebblex.TransportKind
	Name      string
}

func (d DeviceHandle) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s (%s %s)", d.Name, d.Transport, d.Address)
	}
	return fmt.Sprintf("%s %s", d.Transport, d.Address)
}

type ConnectionState int32

const (
	StateConnecting ConnectionState = iota
	StateConnected
	StateDisconnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	case StateFailed:
		return "Failed"
	}

	return fmt.Sprintf("ConnectionState(%d)", int32(s))
}

// IsTerminal reports whether no further transitions follow s.
func (s ConnectionState) IsTerminal() bool {
	return s == StateDisconnected || s == StateFailed
}

// ConnectionStatus is a single lifecycle transition.  Err is set for Failed,
// and for Disconnected when the link was lost rather than closed locally.
type ConnectionStatus struct {
	State  ConnectionState
	Device DeviceHandle
	Err    error
}

// DialTransportFunc opens the byte stream to a device.
type DialTransportFunc func(ctx context.Context, device DeviceHandle) (pebblex.Transport, error)

type ConnectionOptions struct {
	Logger *zap.Logger

	// DialTransport replaces the transport dialer, DialOptions is passed to
	// the default one.
	DialTransport DialTransportFunc
	DialOptions   *pebblex.DialConnOptions

	RequestTimeout time.Duration
	ReorderTimeout time.Duration
	RetryManager   RetryManager
	TracerProvider trace.TracerProvider
}

// Connection is the lifecycle of a single link to a watch.  It moves from
// Connecting to either Connected or Failed, and from Connected to
// Disconnected, every transition being published on States.
type Connection struct {
	id     string
	device DeviceHandle
	logger *zap.Logger
	opts   ConnectionOptions

	statesCh   chan ConnectionStatus
	state      atomic.Int32
	cancelDial context.CancelFunc
	closed     atomic.Bool

	lock   sync.Mutex
	cli    *pebblex.Client
	blobdb *BlobDBClient
	err    error

	subs        *subscriptionSet
	reorderLock sync.Mutex
	reorderCh   chan *pebblex.AppReorderResult

	readyCh chan struct{}
	doneCh  chan struct{}
}

// Connect starts connecting to device in the background and returns
// immediately.  ctx bounds the dial only; once connected the connection
// lives until Close is called or the link is lost.
func Connect(ctx context.Context, device DeviceHandle, opts *ConnectionOptions) *Connection {
	if opts == nil {
		opts = &ConnectionOptions{}
	}

	id := uuid.NewString()[:8]
	logger := loggerOrNop(opts.Logger).With(
		zap.String("connectionId", id),
		zaputils.DeviceAddress("device", device.Address),
	)

	dialCtx, cancelDial := context.WithCancel(ctx)

	c := &Connection{
		id:         id,
		device:     device,
		logger:     logger,
		opts:       *opts,
		statesCh:   make(chan ConnectionStatus, 3),
		cancelDial: cancelDial,
		subs:       newSubscriptionSet(),
		reorderCh:  make(chan *pebblex.AppReorderResult, 1),
		readyCh:    make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	c.setState(StateConnecting, nil)
	go c.run(dialCtx)

	return c
}

func (c *Connection) dial(ctx context.Context) (pebblex.Transport, error) {
	if c.opts.DialTransport != nil {
		return c.opts.DialTransport(ctx, c.device)
	}

	return pebblex.DialConn(ctx, c.device.Transport, c.device.Address, c.opts.DialOptions)
}

func (c *Connection) run(ctx context.Context) {
	defer c.cancelDial()

	transport, err := c.dial(ctx)
	if err == nil && c.closed.Load() {
		_ = transport.Close()
		err = ErrConnectionClosed
	}
	if err != nil {
		c.logger.Debug("failed to connect", zap.Error(err))

		c.lock.Lock()
		c.err = err
		c.lock.Unlock()

		close(c.readyCh)
		c.finish(StateFailed, err)
		return
	}

	cli := pebblex.NewClient(transport, &pebblex.ClientOptions{
		UnsolicitedHandler: c.handleUnsolicited,
		MalformedHandler:   c.handleMalformed,
		CloseHandler:       c.handleClose,
		Logger:             c.logger,
	})

	c.lock.Lock()
	c.cli = cli
	c.blobdb = NewBlobDBClient(cli, &BlobDBClientOptions{
		Logger:         c.logger,
		RequestTimeout: c.opts.RequestTimeout,
		RetryManager:   c.opts.RetryManager,
		DeviceAddress:  c.device.Address,
		TracerProvider: c.opts.TracerProvider,
	})
	c.lock.Unlock()

	c.setState(StateConnected, nil)
	close(c.readyCh)

	// Close may have run while we were setting up the client, in which case
	// it could not see it.
	if c.closed.Load() {
		_ = cli.Close()
	}
}

func (c *Connection) setState(state ConnectionState, err error) {
	c.state.Store(int32(state))

	connectionTransitions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("state", state.String())))

	if err != nil {
		c.logger.Info("connection state changed",
			zap.Stringer("state", state),
			zap.Error(err))
	} else {
		c.logger.Info("connection state changed",
			zap.Stringer("state", state))
	}

	// there are never more than three transitions, which is exactly the
	// capacity of the channel, so this never blocks.
	c.statesCh <- ConnectionStatus{
		State:  state,
		Device: c.device,
		Err:    err,
	}
}

func (c *Connection) finish(state ConnectionState, err error) {
	c.setState(state, err)
	close(c.statesCh)
	c.subs.CloseAll()
	close(c.doneCh)
}

func (c *Connection) handleClose(err error) {
	// Connected must be published before Disconnected, even when the link
	// drops the moment the client starts.
	<-c.readyCh

	c.lock.Lock()
	c.err = err
	c.lock.Unlock()

	c.finish(StateDisconnected, err)
}

func (c *Connection) handleUnsolicited(pak *pebblex.Packet) {
	if pak.Endpoint == pebblex.EndpointAppReorder {
		res, err := pebblex.ParseAppReorderResult(pak.Payload)
		if err != nil {
			c.logger.Warn("received an invalid app reorder result", zap.Error(err))
			return
		}

		select {
		case c.reorderCh <- res:
		default:
			c.logger.Debug("dropping app reorder result nobody is waiting for",
				zap.Stringer("result", res.Status))
		}
		return
	}

	delivered := c.subs.Publish(pak)
	if delivered == 0 {
		c.logger.Debug("no subscriber for packet",
			zap.Stringer("endpoint", pak.Endpoint))
	}
}

func (c *Connection) handleMalformed(err error) {
	malformedFrames.Add(context.Background(), 1)
}

func (c *Connection) client() *pebblex.Client {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.cli
}

func (c *Connection) blobDBClient() *BlobDBClient {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.blobdb
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) Device() DeviceHandle {
	return c.device
}

// States returns the channel of lifecycle transitions.  It has room for
// every transition, so it can be read at any time, and is closed after the
// terminal state.
func (c *Connection) States() <-chan ConnectionStatus {
	return c.statesCh
}

func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// WaitConnected blocks until the connection is either established or has
// failed.
func (c *Connection) WaitConnected(ctx context.Context) error {
	select {
	case <-c.readyCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	if c.client() == nil {
		return c.Err()
	}
	return nil
}

// Done is closed once the connection has reached a terminal state.
func (c *Connection) Done() <-chan struct{} {
	return c.doneCh
}

// Wait blocks until the connection has reached a terminal state.
func (c *Connection) Wait(ctx context.Context) error {
	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns why the connection failed or was lost.  It is nil while the
// connection is up and after a local Close.
func (c *Connection) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

// Submit sends a BlobDB command over the connection.  See
// BlobDBClient.Submit for the meaning of the results.
func (c *Connection) Submit(ctx context.Context, cmd *pebblex.BlobCommand) (*pebblex.BlobResponse, error) {
	blobdb := c.blobDBClient()
	if blobdb == nil {
		return nil, &WatchDisconnectedError{Cause: ErrNotConnected}
	}

	return blobdb.Submit(ctx, cmd)
}

// SendPacket writes a packet which expects no correlated answer.
func (c *Connection) SendPacket(pak *pebblex.Packet) error {
	cli := c.client()
	if cli == nil {
		return &WatchDisconnectedError{Cause: ErrNotConnected}
	}

	err := cli.WritePacket(pak)
	if errors.Is(err, pebblex.ErrClosed) {
		return &WatchDisconnectedError{Cause: err}
	}
	return err
}

// Subscribe returns a subscription to every packet the watch sends on its
// own, limited to the given endpoints if any are given.
func (c *Connection) Subscribe(endpoints ...pebblex.Endpoint) *Subscription {
	return c.subs.Subscribe(endpoints)
}

// Close tears the connection down.  It does not wait, use Done or Wait for
// that.  It is safe to call any number of times.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancelDial()

	cli := c.client()
	if cli != nil {
		return cli.Close()
	}
	return nil
}

package cobblecorex

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex/zaputils"
)

type ConnectionManagerOptions struct {
	Logger *zap.Logger

	// ConnectionOptions is used for every connection the manager creates.
	// Its Logger is replaced by the manager's.
	ConnectionOptions ConnectionOptions
}

// ConnectionManager keeps at most one live connection per device address.
// Connecting to a device replaces, and waits for the end of, any previous
// connection to it since a watch only accepts a single link at a time.
type ConnectionManager struct {
	logger   *zap.Logger
	connOpts ConnectionOptions

	connectLock sync.Mutex
	conns       *xsync.MapOf[string, *Connection]
	watchers    sync.WaitGroup
}

func NewConnectionManager(opts *ConnectionManagerOptions) *ConnectionManager {
	if opts == nil {
		opts = &ConnectionManagerOptions{}
	}

	logger := loggerOrNop(opts.Logger)
	connOpts := opts.ConnectionOptions
	connOpts.Logger = logger

	return &ConnectionManager{
		logger:   logger,
		connOpts: connOpts,
		conns:    xsync.NewMapOf[string, *Connection](),
	}
}

// Connect closes any existing connection to device, waits for it to end and
// starts a new one.  The returned connection is still connecting.
func (m *ConnectionManager) Connect(ctx context.Context, device DeviceHandle) (*Connection, error) {
	m.connectLock.Lock()
	defer m.connectLock.Unlock()

	if old, ok := m.conns.Load(device.Address); ok {
		m.logger.Debug("replacing existing connection",
			zaputils.DeviceAddress("device", device.Address),
			zap.String("connectionId", old.ID()))

		_ = old.Close()
		if err := old.Wait(ctx); err != nil {
			return nil, err
		}
	}

	conn := Connect(ctx, device, &m.connOpts)
	m.conns.Store(device.Address, conn)

	m.watchers.Add(1)
	go func() {
		defer m.watchers.Done()
		<-conn.Done()

		m.conns.Compute(device.Address, func(current *Connection, loaded bool) (*Connection, bool) {
			// only forget the connection if it was not replaced meanwhile.
			return current, !loaded || current == conn
		})
	}()

	return conn, nil
}

// Get returns the live connection to the device at address.
func (m *ConnectionManager) Get(address string) (*Connection, bool) {
	return m.conns.Load(address)
}

func (m *ConnectionManager) Connections() []*Connection {
	var conns []*Connection
	m.conns.Range(func(_ string, conn *Connection) bool {
		conns = append(conns, conn)
		return true
	})
	return conns
}

// Disconnect closes the connection to the device at address, if any.
func (m *ConnectionManager) Disconnect(address string) error {
	conn, ok := m.conns.Load(address)
	if !ok {
		return nil
	}
	return conn.Close()
}

// CloseAll closes every connection and waits for them to end.
func (m *ConnectionManager) CloseAll() error {
	m.connectLock.Lock()
	defer m.connectLock.Unlock()

	for _, conn := range m.Connections() {
		_ = conn.Close()
	}

	m.watchers.Wait()
	return nil
}

package watchsim

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex/pebblex"
	"github.com/pebble-dev/cobblecorex/testutils"
)

// ErrInjectedWriteFailure is returned by Transport writes after FailWrites.
var ErrInjectedWriteFailure = errors.New("injected write failure")

// BlobHandler decides how the simulated watch answers a BlobDB command.
// Returning reply=false leaves the command unanswered.
type BlobHandler func(cmd *pebblex.BlobCommand) (status pebblex.BlobStatus, reply bool)

// ReorderHandler decides how the simulated watch answers an app reorder
// request.  Returning reply=false leaves the request unanswered.
type ReorderHandler func(req *pebblex.AppReorderRequest) (status pebblex.AppOrderResultCode, reply bool)

func AlwaysSucceed(cmd *pebblex.BlobCommand) (pebblex.BlobStatus, bool) {
	return pebblex.BlobStatusSuccess, true
}

func NeverReply(cmd *pebblex.BlobCommand) (pebblex.BlobStatus, bool) {
	return 0, false
}

// ReplyInOrder answers the Nth command with statuses[N], and any command
// past the end of the list with the last status.
func ReplyInOrder(statuses ...pebblex.BlobStatus) BlobHandler {
	var lock sync.Mutex
	idx := 0
	return func(cmd *pebblex.BlobCommand) (pebblex.BlobStatus, bool) {
		lock.Lock()
		defer lock.Unlock()

		status := statuses[len(statuses)-1]
		if idx < len(statuses) {
			status = statuses[idx]
		}
		idx++
		return status, true
	}
}

// Watch is an in-memory stand in for the watch end of a transport.  It
// decodes every frame the phone writes, answers BlobDB commands and app
// reorder requests through its handlers and queues everything else for
// the test to inspect.
type Watch struct {
	logger *zap.Logger
	conn   net.Conn

	writeLock sync.Mutex
	writer    pebblex.PacketWriter

	lock           sync.Mutex
	blobHandler    BlobHandler
	reorderHandler ReorderHandler
	blobCommands   []*pebblex.BlobCommand
	reorders       []*pebblex.AppReorderRequest

	received chan *pebblex.Packet
	doneCh   chan struct{}
}

// Transport is the phone end of the simulated link.
type Transport struct {
	net.Conn

	closeCount atomic.Int32
	failWrites atomic.Bool
}

var _ pebblex.Transport = (*Transport)(nil)

func (t *Transport) Write(p []byte) (int, error) {
	if t.failWrites.Load() {
		return 0, ErrInjectedWriteFailure
	}
	return t.Conn.Write(p)
}

func (t *Transport) Close() error {
	t.closeCount.Inc()
	return t.Conn.Close()
}

// CloseCount returns how many times Close has been called.
func (t *Transport) CloseCount() int {
	return int(t.closeCount.Load())
}

// FailWrites makes every following write fail.
func (t *Transport) FailWrites() {
	t.failWrites.Store(true)
}

// New starts a simulated watch which answers every BlobDB command with
// Success.  The watch is disconnected when the test ends.
func New(t *testing.T) (*Watch, *Transport) {
	phoneConn, watchConn := net.Pipe()

	w := &Watch{
		logger:         testutils.MakeTestLogger(t).Named("watchsim"),
		conn:           watchConn,
		blobHandler:    AlwaysSucceed,
		reorderHandler: func(*pebblex.AppReorderRequest) (pebblex.AppOrderResultCode, bool) { return pebblex.AppOrderResultSuccess, true },
		received:       make(chan *pebblex.Packet, 256),
		doneCh:         make(chan struct{}),
	}
	go w.serve()

	t.Cleanup(func() {
		_ = w.Disconnect()
		_ = phoneConn.Close()
		<-w.doneCh
	})

	return w, &Transport{Conn: phoneConn}
}

func (w *Watch) serve() {
	defer close(w.doneCh)

	reader := &pebblex.PacketReader{}
	for {
		pak := &pebblex.Packet{}
		err := reader.ReadPacket(w.conn, pak)
		if err != nil {
			if errors.Is(err, pebblex.ErrMalformedFrame) {
				w.logger.Debug("watch skipped malformed bytes", zap.Error(err))
				continue
			}
			return
		}

		switch pak.Endpoint {
		case pebblex.EndpointBlobDB:
			w.handleBlobCommand(pak)
		case pebblex.EndpointAppReorder:
			w.handleReorder(pak)
		default:
			select {
			case w.received <- pak:
			default:
				w.logger.Warn("watch dropped packet, receive buffer is full")
			}
		}
	}
}

func (w *Watch) handleBlobCommand(pak *pebblex.Packet) {
	cmd, err := pebblex.ParseBlobCommand(pak.Payload)
	if err != nil {
		w.logger.Debug("watch received an invalid blobdb command", zap.Error(err))
		return
	}

	w.lock.Lock()
	w.blobCommands = append(w.blobCommands, cmd)
	handler := w.blobHandler
	w.lock.Unlock()

	status, reply := handler(cmd)
	if !reply {
		return
	}

	resp := &pebblex.BlobResponse{
		Token:  cmd.Token,
		Status: status,
	}
	_ = w.Send(&pebblex.Packet{
		Endpoint: pebblex.EndpointBlobDB,
		Payload:  resp.AppendTo(nil),
	})
}

func (w *Watch) handleReorder(pak *pebblex.Packet) {
	req, err := pebblex.ParseAppReorderRequest(pak.Payload)
	if err != nil {
		w.logger.Debug("watch received an invalid reorder request", zap.Error(err))
		return
	}

	w.lock.Lock()
	w.reorders = append(w.reorders, req)
	handler := w.reorderHandler
	w.lock.Unlock()

	status, reply := handler(req)
	if !reply {
		return
	}

	res := &pebblex.AppReorderResult{Status: status}
	_ = w.Send(&pebblex.Packet{
		Endpoint: pebblex.EndpointAppReorder,
		Payload:  res.AppendTo(nil),
	})
}

func (w *Watch) SetBlobHandler(handler BlobHandler) {
	w.lock.Lock()
	w.blobHandler = handler
	w.lock.Unlock()
}

func (w *Watch) SetReorderHandler(handler ReorderHandler) {
	w.lock.Lock()
	w.reorderHandler = handler
	w.lock.Unlock()
}

// BlobCommands returns every BlobDB command received so far.
func (w *Watch) BlobCommands() []*pebblex.BlobCommand {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]*pebblex.BlobCommand(nil), w.blobCommands...)
}

// Reorders returns every app reorder request received so far.
func (w *Watch) Reorders() []*pebblex.AppReorderRequest {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]*pebblex.AppReorderRequest(nil), w.reorders...)
}

// WaitForBlobCommands waits until at least n commands have arrived.
func (w *Watch) WaitForBlobCommands(t *testing.T, n int) []*pebblex.BlobCommand {
	require.Eventually(t, func() bool {
		return len(w.BlobCommands()) >= n
	}, 5*time.Second, time.Millisecond)

	return w.BlobCommands()
}

// Received returns packets for endpoints the watch does not answer itself.
func (w *Watch) Received() <-chan *pebblex.Packet {
	return w.received
}

// Send writes a packet to the phone.
func (w *Watch) Send(pak *pebblex.Packet) error {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()
	return w.writer.WritePacket(w.conn, pak)
}

// SendRaw writes bytes to the phone without any framing.
func (w *Watch) SendRaw(b []byte) error {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()
	_, err := w.conn.Write(b)
	return err
}

// Disconnect drops the link as if the watch went out of range.
func (w *Watch) Disconnect() error {
	return w.conn.Close()
}

// Done is closed once the watch has stopped reading.
func (w *Watch) Done() <-chan struct{} {
	return w.doneCh
}

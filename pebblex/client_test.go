package pebblex

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func sendBlobAsync(t *testing.T, d Dispatcher, cmd *BlobCommand) (PendingOp, chan unaryResult[*BlobResponse]) {
	resCh := make(chan unaryResult[*BlobResponse], 1)
	op, err := OpsBlobDB{}.Send(d, cmd, func(resp *BlobResponse, err error) {
		resCh <- unaryResult[*BlobResponse]{
			Resp: resp,
			Err:  err,
		}
	})
	require.NoError(t, err)

	return op, resCh
}

func waitForResult[T any](t *testing.T, resCh chan unaryResult[T]) unaryResult[T] {
	select {
	case res := <-resCh:
		return res
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for result")
	}

	return unaryResult[T]{}
}

func TestClientBlobRoundTrip(t *testing.T) {
	cli, watch, _ := createTestClient(t, nil)

	key := uuid.New()
	cmd := NewInsertCommand(BlobDatabaseNotification, key[:], []byte("hello"))

	resCh := make(chan unaryResult[*BlobResponse], 1)
	go func() {
		resp, err := syncUnaryCall(OpsBlobDB{}, OpsBlobDB.Send, cli, cmd)
		resCh <- unaryResult[*BlobResponse]{Resp: resp, Err: err}
	}()

	received := watch.ReadBlobCommand(t)
	assert.Equal(t, BlobOpInsert, received.Op)
	assert.Equal(t, BlobDatabaseNotification, received.Database)
	assert.Equal(t, key[:], received.Key)
	assert.Equal(t, []byte("hello"), received.Value)
	assert.NotZero(t, received.Token)

	watch.ReplyBlob(t, received.Token, BlobStatusSuccess)

	res := waitForResult(t, resCh)
	require.NoError(t, res.Err)
	assert.Equal(t, received.Token, res.Resp.Token)
	assert.Equal(t, BlobStatusSuccess, res.Resp.Status)
	assert.Zero(t, cli.PendingRequests())
}

func TestClientSendsInQueueOrder(t *testing.T) {
	cli, watch, _ := createTestClient(t, nil)

	var resChs []chan unaryResult[*BlobResponse]
	for i := 0; i < 5; i++ {
		_, resCh := sendBlobAsync(t, cli, NewDeleteCommand(BlobDatabaseApp, []byte{byte(i)}))
		resChs = append(resChs, resCh)
	}

	for i := 0; i < 5; i++ {
		cmd := watch.ReadBlobCommand(t)
		assert.Equal(t, []byte{byte(i)}, cmd.Key)
		watch.ReplyBlob(t, cmd.Token, BlobStatusKeyDoesNotExist)
	}

	for _, resCh := range resChs {
		res := waitForResult(t, resCh)
		require.NoError(t, res.Err)
		assert.Equal(t, BlobStatusKeyDoesNotExist, res.Resp.Status)
	}
}

func TestClientUnsolicitedPackets(t *testing.T) {
	unsolicitedCh := make(chan *Packet, 4)
	_, watch, _ := createTestClient(t, &ClientOptions{
		UnsolicitedHandler: func(pak *Packet) {
			unsolicitedCh <- pak
		},
	})

	watch.WritePacket(t, &Packet{Endpoint: EndpointPing, Payload: []byte{0x00, 0x01}})
	watch.ReplyBlob(t, 0x4242, BlobStatusSuccess)
	watch.WritePacket(t, &Packet{Endpoint: EndpointAppReorder, Payload: []byte{0x01, 0x01}})

	for _, expected := range []Endpoint{EndpointPing, EndpointBlobDB, EndpointAppReorder} {
		select {
		case pak := <-unsolicitedCh:
			assert.Equal(t, expected, pak.Endpoint)
		case <-time.After(5 * time.Second):
			require.FailNow(t, "unsolicited packet was not delivered")
		}
	}
}

func TestClientRemoteCloseFailsPending(t *testing.T) {
	closeErrCh := make(chan error, 1)
	cli, watch, transport := createTestClient(t, &ClientOptions{
		CloseHandler: func(err error) {
			closeErrCh <- err
		},
	})

	_, resCh1 := sendBlobAsync(t, cli, NewClearCommand(BlobDatabasePin))
	_, resCh2 := sendBlobAsync(t, cli, NewClearCommand(BlobDatabaseApp))

	watch.ReadBlobCommand(t)
	watch.ReadBlobCommand(t)
	assert.Equal(t, 2, cli.PendingRequests())

	require.NoError(t, watch.conn.Close())

	for _, resCh := range []chan unaryResult[*BlobResponse]{resCh1, resCh2} {
		res := waitForResult(t, resCh)
		assert.ErrorIs(t, res.Err, ErrClosedInFlight)
		assert.Nil(t, res.Resp)
	}

	waitForDone(t, cli)
	assert.ErrorIs(t, <-closeErrCh, io.EOF)
	assert.ErrorIs(t, cli.Err(), io.EOF)
	assert.True(t, cli.IsClosed())
	assert.Zero(t, cli.PendingRequests())

	_, err := OpsBlobDB{}.Send(cli, NewClearCommand(BlobDatabasePin), func(*BlobResponse, error) {
		t.Error("callback should not be invoked")
	})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, cli.WritePacket(&Packet{Endpoint: EndpointPing}), ErrClosed)

	require.NoError(t, cli.Close())
	assert.Equal(t, int32(1), transport.closes.Load())
}

func TestClientWriteFailureTearsDown(t *testing.T) {
	closeErrCh := make(chan error, 1)
	cli, _, transport := createTestClient(t, &ClientOptions{
		CloseHandler: func(err error) {
			closeErrCh <- err
		},
	})

	transport.failWrites.Store(true)

	_, resCh := sendBlobAsync(t, cli, NewClearCommand(BlobDatabasePin))

	res := waitForResult(t, resCh)
	assert.ErrorIs(t, res.Err, ErrClosedInFlight)

	waitForDone(t, cli)
	assert.ErrorIs(t, <-closeErrCh, errTestWriteFailed)
	assert.Equal(t, int32(1), transport.closes.Load())
}

func TestClientLocalClose(t *testing.T) {
	closeErrCh := make(chan error, 1)
	cli, _, transport := createTestClient(t, &ClientOptions{
		CloseHandler: func(err error) {
			closeErrCh <- err
		},
	})

	require.NoError(t, cli.Close())
	require.NoError(t, cli.Close())

	waitForDone(t, cli)
	assert.NoError(t, <-closeErrCh)
	assert.NoError(t, cli.Err())
	assert.Equal(t, int32(1), transport.closes.Load())
}

func TestClientOpCancellation(t *testing.T) {
	unsolicitedCh := make(chan *Packet, 1)
	cli, watch, _ := createTestClient(t, &ClientOptions{
		UnsolicitedHandler: func(pak *Packet) {
			unsolicitedCh <- pak
		},
	})

	op, resCh := sendBlobAsync(t, cli, NewDeleteCommand(BlobDatabaseNotification, []byte{0x01}))
	cmd := watch.ReadBlobCommand(t)
	assert.True(t, cli.HasPendingToken(cmd.Token))

	expectedErr := errors.New("some error")
	assert.True(t, op.Cancel(expectedErr))
	assert.False(t, op.Cancel(expectedErr))

	res := waitForResult(t, resCh)
	assert.ErrorIs(t, res.Err, expectedErr)
	assert.Nil(t, res.Resp)
	assert.False(t, cli.HasPendingToken(cmd.Token))

	// a late response for a cancelled request is just another unsolicited
	// packet.
	watch.ReplyBlob(t, cmd.Token, BlobStatusSuccess)
	select {
	case pak := <-unsolicitedCh:
		token, ok := pak.Token()
		assert.True(t, ok)
		assert.Equal(t, cmd.Token, token)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "late response was not delivered as unsolicited")
	}
}

// This test just tests that cancelling an already handled op doesn't do anything weird.
func TestClientOpCancellationAfterResult(t *testing.T) {
	cli, watch, _ := createTestClient(t, nil)

	op, resCh := sendBlobAsync(t, cli, NewClearCommand(BlobDatabaseTest))
	cmd := watch.ReadBlobCommand(t)
	watch.ReplyBlob(t, cmd.Token, BlobStatusSuccess)

	res := waitForResult(t, resCh)
	require.NoError(t, res.Err)

	assert.False(t, op.Cancel(errors.New("some error")))
}

func TestClientSkipsMalformedBytes(t *testing.T) {
	var malformedCount atomic.Int32
	cli, watch, _ := createTestClient(t, &ClientOptions{
		MalformedHandler: func(err error) {
			assert.ErrorIs(t, err, ErrMalformedFrame)
			malformedCount.Inc()
		},
	})

	_, resCh := sendBlobAsync(t, cli, NewClearCommand(BlobDatabaseWeather))
	cmd := watch.ReadBlobCommand(t)

	resp := &BlobResponse{Token: cmd.Token, Status: BlobStatusSuccess}
	frame, err := AppendFrame([]byte{0xff, 0xff, 0xff, 0xff}, &Packet{
		Endpoint: EndpointBlobDB,
		Payload:  resp.AppendTo(nil),
	})
	require.NoError(t, err)
	watch.WriteRaw(t, frame)

	res := waitForResult(t, resCh)
	require.NoError(t, res.Err)
	assert.Equal(t, BlobStatusSuccess, res.Resp.Status)
	assert.GreaterOrEqual(t, malformedCount.Load(), int32(1))
	assert.False(t, cli.IsClosed())
}

func TestClientWritePacket(t *testing.T) {
	cli, watch, _ := createTestClient(t, nil)

	ids := []uuid.UUID{uuid.New()}
	require.NoError(t, OpsAppReorder{}.Send(cli, &AppReorderRequest{AppIDs: ids}))

	pak := watch.ReadPacket(t)
	assert.Equal(t, EndpointAppReorder, pak.Endpoint)

	req, err := ParseAppReorderRequest(pak.Payload)
	require.NoError(t, err)
	assert.Equal(t, ids, req.AppIDs)
}

func TestClientDispatchEncodeFailure(t *testing.T) {
	cli, _, _ := createTestClient(t, nil)

	_, err := OpsBlobDB{}.Send(cli, &BlobCommand{Op: BlobOpDelete}, func(*BlobResponse, error) {
		t.Error("callback should not be invoked")
	})
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Zero(t, cli.PendingRequests())
}

package cobblecorex

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pebble-dev/cobblecorex/pebblex"
	"github.com/pebble-dev/cobblecorex/testutils"
)

type testPendingOp struct {
	lock    sync.Mutex
	handler pebblex.DispatchCallback
}

func (op *testPendingOp) Cancel(err error) bool {
	op.lock.Lock()
	handler := op.handler
	op.handler = nil
	op.lock.Unlock()

	if handler == nil {
		return false
	}
	handler(nil, err)
	return true
}

// newScriptedDispatcher answers the Nth dispatch with statuses[N] straight
// away, and anything past the end of the list with the last status.
func newScriptedDispatcher(t *testing.T, statuses ...pebblex.BlobStatus) (*DispatcherMock, *[]uint16) {
	var lock sync.Mutex
	var tokens []uint16
	idx := 0

	return &DispatcherMock{
		DispatchFunc: func(endpoint pebblex.Endpoint, encode pebblex.PayloadEncoder, handler pebblex.DispatchCallback) (pebblex.PendingOp, error) {
			lock.Lock()
			token := uint16(0x100 + idx)
			status := statuses[len(statuses)-1]
			if idx < len(statuses) {
				status = statuses[idx]
			}
			idx++
			tokens = append(tokens, token)
			lock.Unlock()

			payload, err := encode(token)
			if err != nil {
				return nil, err
			}

			cmd, err := pebblex.ParseBlobCommand(payload)
			require.NoError(t, err)
			assert.Equal(t, token, cmd.Token)

			resp := &pebblex.BlobResponse{Token: token, Status: status}
			handler(&pebblex.Packet{Endpoint: endpoint, Payload: resp.AppendTo(nil)}, nil)
			return &testPendingOp{}, nil
		},
	}, &tokens
}

func fastRetries() RetryManager {
	return NewRetryManagerTryLater(&RetryManagerTryLaterOptions{
		Backoff: FixedBackoff(time.Millisecond),
	})
}

func TestBlobDBClientSuccess(t *testing.T) {
	dispatcher, tokens := newScriptedDispatcher(t, pebblex.BlobStatusSuccess)
	cli := NewBlobDBClient(dispatcher, &BlobDBClientOptions{
		Logger: testutils.MakeTestLogger(t),
	})

	cmd := pebblex.NewInsertCommand(pebblex.BlobDatabaseTest, []byte{0x01}, []byte{0x02})
	resp, err := cli.Submit(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusSuccess, resp.Status)
	assert.Equal(t, pebblex.BlobStatusSuccess, StatusOf(resp, err))
	assert.Equal(t, []uint16{0x100}, *tokens)
	assert.Equal(t, uint16(0x100), cmd.Token)

	calls := dispatcher.DispatchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, pebblex.EndpointBlobDB, calls[0].Endpoint)
}

func TestBlobDBClientNonRetriedStatuses(t *testing.T) {
	for _, status := range []pebblex.BlobStatus{
		pebblex.BlobStatusGeneralFailure,
		pebblex.BlobStatusKeyDoesNotExist,
		pebblex.BlobStatusDatabaseFull,
		pebblex.BlobStatusInvalidData,
	} {
		t.Run(status.String(), func(t *testing.T) {
			dispatcher, tokens := newScriptedDispatcher(t, status, pebblex.BlobStatusSuccess)
			cli := NewBlobDBClient(dispatcher, &BlobDBClientOptions{
				RetryManager: fastRetries(),
			})

			resp, err := cli.Submit(context.Background(), pebblex.NewClearCommand(pebblex.BlobDatabaseTest))
			require.NoError(t, err)
			assert.Equal(t, status, resp.Status)
			assert.Len(t, *tokens, 1)
		})
	}
}

func TestBlobDBClientRetriesTryLaterWithNewTokens(t *testing.T) {
	dispatcher, tokens := newScriptedDispatcher(t,
		pebblex.BlobStatusTryLater,
		pebblex.BlobStatusTryLater,
		pebblex.BlobStatusSuccess)
	cli := NewBlobDBClient(dispatcher, &BlobDBClientOptions{
		RetryManager: fastRetries(),
	})

	resp, err := cli.Submit(context.Background(), pebblex.NewDeleteCommand(pebblex.BlobDatabaseNotification, []byte{0x01}))
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusSuccess, resp.Status)
	assert.Equal(t, []uint16{0x100, 0x101, 0x102}, *tokens)
}

func TestBlobDBClientTryLaterWaitsBetweenAttempts(t *testing.T) {
	dispatcher, tokens := newScriptedDispatcher(t,
		pebblex.BlobStatusTryLater,
		pebblex.BlobStatusSuccess)
	cli := NewBlobDBClient(dispatcher, nil)

	stime := time.Now()
	resp, err := cli.Submit(context.Background(), pebblex.NewClearCommand(pebblex.BlobDatabaseTest))
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusSuccess, resp.Status)
	assert.GreaterOrEqual(t, time.Since(stime), DefaultTryLaterInterval)
	assert.Len(t, *tokens, 2)
}

func TestBlobDBClientTryLaterRetriesExhausted(t *testing.T) {
	dispatcher, tokens := newScriptedDispatcher(t, pebblex.BlobStatusTryLater)
	cli := NewBlobDBClient(dispatcher, &BlobDBClientOptions{
		RetryManager: NewRetryManagerTryLater(&RetryManagerTryLaterOptions{
			Backoff:    FixedBackoff(time.Millisecond),
			MaxRetries: 2,
		}),
	})

	resp, err := cli.Submit(context.Background(), pebblex.NewClearCommand(pebblex.BlobDatabaseTest))
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusTryLater, resp.Status)
	assert.Len(t, *tokens, 3)
}

func TestBlobDBClientTryLaterBoundedByContext(t *testing.T) {
	dispatcher, _ := newScriptedDispatcher(t, pebblex.BlobStatusTryLater)
	cli := NewBlobDBClient(dispatcher, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp, err := cli.Submit(ctx, pebblex.NewClearCommand(pebblex.BlobDatabaseTest))
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrWatchDisconnected)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, pebblex.BlobStatusWatchDisconnected, StatusOf(resp, err))
}

func TestBlobDBClientTimeout(t *testing.T) {
	var pendingOps []*testPendingOp
	dispatcher := &DispatcherMock{
		DispatchFunc: func(endpoint pebblex.Endpoint, encode pebblex.PayloadEncoder, handler pebblex.DispatchCallback) (pebblex.PendingOp, error) {
			_, err := encode(0x4242)
			require.NoError(t, err)

			op := &testPendingOp{handler: handler}
			pendingOps = append(pendingOps, op)
			return op, nil
		},
	}
	cli := NewBlobDBClient(dispatcher, &BlobDBClientOptions{
		RequestTimeout: 20 * time.Millisecond,
	})

	resp, err := cli.Submit(context.Background(), pebblex.NewClearCommand(pebblex.BlobDatabaseTest))
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrWatchDisconnected)
	assert.ErrorIs(t, err, ErrRequestTimeout)

	// a timeout is not retried, and the pending request was cancelled.
	require.Len(t, pendingOps, 1)
	assert.False(t, pendingOps[0].Cancel(errors.New("again")))
}

func TestBlobDBClientDispatchClosed(t *testing.T) {
	dispatcher := &DispatcherMock{
		DispatchFunc: func(endpoint pebblex.Endpoint, encode pebblex.PayloadEncoder, handler pebblex.DispatchCallback) (pebblex.PendingOp, error) {
			return nil, pebblex.ErrClosed
		},
	}
	cli := NewBlobDBClient(dispatcher, nil)

	_, err := cli.Submit(context.Background(), pebblex.NewClearCommand(pebblex.BlobDatabaseTest))
	assert.ErrorIs(t, err, ErrWatchDisconnected)
	assert.ErrorIs(t, err, pebblex.ErrClosed)
}

func TestBlobDBClientInvalidCommand(t *testing.T) {
	dispatcher, tokens := newScriptedDispatcher(t, pebblex.BlobStatusSuccess)
	cli := NewBlobDBClient(dispatcher, nil)

	_, err := cli.Submit(context.Background(), &pebblex.BlobCommand{Op: pebblex.BlobOpInsert})
	assert.ErrorIs(t, err, pebblex.ErrProtocol)
	assert.NotErrorIs(t, err, ErrWatchDisconnected)
	assert.Len(t, *tokens, 1)
}

func TestBlobDBClientTracesEveryAttempt(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	dispatcher, _ := newScriptedDispatcher(t,
		pebblex.BlobStatusTryLater,
		pebblex.BlobStatusSuccess)
	cli := NewBlobDBClient(dispatcher, &BlobDBClientOptions{
		RetryManager:   fastRetries(),
		DeviceAddress:  "00:11:22:33:44:55",
		TracerProvider: tp,
	})

	_, err := cli.Submit(context.Background(), pebblex.NewInsertCommand(pebblex.BlobDatabaseApp, []byte{0x01}, []byte{0x02}))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	for i, span := range spans {
		assert.Equal(t, "blobdb/Insert", span.Name())

		attribs := attribute.NewSet(span.Attributes()...)
		attempt, ok := attribs.Value("pebble.blobdb.attempt")
		require.True(t, ok)
		assert.Equal(t, int64(i+1), attempt.AsInt64())

		addr, ok := attribs.Value("server.address")
		require.True(t, ok)
		assert.Equal(t, "00:11:22:33:44:55", addr.AsString())
	}

	firstAttribs := attribute.NewSet(spans[0].Attributes()...)
	status, ok := firstAttribs.Value("pebble.blobdb.status")
	require.True(t, ok)
	assert.Equal(t, "TryLater", status.AsString())

	secondAttribs := attribute.NewSet(spans[1].Attributes()...)
	status, ok = secondAttribs.Value("pebble.blobdb.status")
	require.True(t, ok)
	assert.Equal(t, "Success", status.AsString())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, pebblex.BlobStatusWatchDisconnected, StatusOf(nil, nil))
	assert.Equal(t, pebblex.BlobStatusWatchDisconnected,
		StatusOf(nil, &WatchDisconnectedError{Cause: ErrRequestTimeout}))
	assert.Equal(t, pebblex.BlobStatusLocked,
		StatusOf(&pebblex.BlobResponse{Status: pebblex.BlobStatusLocked}, nil))
}

func TestWatchDisconnectedError(t *testing.T) {
	err := &WatchDisconnectedError{Cause: pebblex.ErrClosedInFlight}
	assert.ErrorIs(t, err, ErrWatchDisconnected)
	assert.ErrorIs(t, err, pebblex.ErrClosedInFlight)
	assert.NotErrorIs(t, err, ErrRequestTimeout)
	assert.EqualError(t, err, "watch disconnected: connection closed while request was in flight")
}

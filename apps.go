package cobblecorex

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex/pebblex"
)

// InsertApp stores the serialized app metadata for id in the app database.
func (c *Connection) InsertApp(ctx context.Context, id uuid.UUID, appBlob []byte) (pebblex.BlobStatus, error) {
	resp, err := c.Submit(ctx, pebblex.NewInsertCommand(pebblex.BlobDatabaseApp, id[:], appBlob))
	return StatusOf(resp, err), err
}

func (c *Connection) RemoveApp(ctx context.Context, id uuid.UUID) (pebblex.BlobStatus, error) {
	resp, err := c.Submit(ctx, pebblex.NewDeleteCommand(pebblex.BlobDatabaseApp, id[:]))
	return StatusOf(resp, err), err
}

func (c *Connection) RemoveAllApps(ctx context.Context) (pebblex.BlobStatus, error) {
	resp, err := c.Submit(ctx, pebblex.NewClearCommand(pebblex.BlobDatabaseApp))
	return StatusOf(resp, err), err
}

// ReorderApps asks the watch to order its app menu as ids.  The status is
// Success once the watch confirms the new order and WatchDisconnected for
// every other outcome, the error then says what went wrong.
func (c *Connection) ReorderApps(ctx context.Context, ids []uuid.UUID) (pebblex.BlobStatus, error) {
	cli := c.client()
	if cli == nil {
		return pebblex.BlobStatusWatchDisconnected, &WatchDisconnectedError{Cause: ErrNotConnected}
	}

	// results carry no token, so only one reorder may be in flight.
	c.reorderLock.Lock()
	defer c.reorderLock.Unlock()

	select {
	case stale := <-c.reorderCh:
		c.logger.Debug("discarding stale app reorder result",
			zap.Stringer("result", stale.Status))
	default:
	}

	err := pebblex.OpsAppReorder{}.Send(cli, &pebblex.AppReorderRequest{AppIDs: ids})
	if err != nil {
		if errors.Is(err, pebblex.ErrClosed) {
			err = &WatchDisconnectedError{Cause: err}
		}
		return pebblex.BlobStatusWatchDisconnected, err
	}

	timeout := c.opts.ReorderTimeout
	if timeout <= 0 {
		timeout = DefaultReorderTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-c.reorderCh:
		if res.Status != pebblex.AppOrderResultSuccess {
			return pebblex.BlobStatusWatchDisconnected, &AppReorderError{Result: res.Status}
		}
		return pebblex.BlobStatusSuccess, nil
	case <-timer.C:
		return pebblex.BlobStatusWatchDisconnected, &WatchDisconnectedError{Cause: ErrRequestTimeout}
	case <-c.doneCh:
		return pebblex.BlobStatusWatchDisconnected, &WatchDisconnectedError{Cause: pebblex.ErrClosedInFlight}
	case <-ctx.Done():
		return pebblex.BlobStatusWatchDisconnected, &WatchDisconnectedError{Cause: ctx.Err()}
	}
}

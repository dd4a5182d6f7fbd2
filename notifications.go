package cobblecorex

import (
	"context"

	"github.com/google/uuid"

	"github.com/pebble-dev/cobblecorex/pebblex"
)

// InsertNotification stores a serialized notification item on the watch,
// keyed by its id.
func (c *Connection) InsertNotification(ctx context.Context, id uuid.UUID, item []byte) (pebblex.BlobStatus, error) {
	resp, err := c.Submit(ctx, pebblex.NewInsertCommand(pebblex.BlobDatabaseNotification, id[:], item))
	return StatusOf(resp, err), err
}

// DismissNotification removes a notification from the watch.  The watch
// answers TryLater while it is busy showing the notification, those answers
// are repeated by the connection's retry manager.
func (c *Connection) DismissNotification(ctx context.Context, id uuid.UUID) (pebblex.BlobStatus, error) {
	resp, err := c.Submit(ctx, pebblex.NewDeleteCommand(pebblex.BlobDatabaseNotification, id[:]))
	return StatusOf(resp, err), err
}

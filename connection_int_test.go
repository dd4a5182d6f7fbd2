package cobblecorex

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebble-dev/cobblecorex/pebblex"
	"github.com/pebble-dev/cobblecorex/testutils"
)

func connectRealWatch(t *testing.T) *Connection {
	testutils.SkipIfShortTest(t)

	device := DeviceHandle{
		Address:   testutils.TestOpts.WatchAddress,
		Transport: pebblex.TransportKind(testutils.TestOpts.WatchTransport),
		Name:      "test-" + testutils.TestOpts.RunName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn := Connect(ctx, device, &ConnectionOptions{
		Logger: testutils.MakeTestLogger(t),
	})
	t.Cleanup(func() {
		_ = conn.Close()
		<-conn.Done()
	})

	require.NoError(t, conn.WaitConnected(ctx))
	return conn
}

func TestIntBlobDBTestDatabase(t *testing.T) {
	conn := connectRealWatch(t)
	ctx := context.Background()

	key := []byte("cobblecorex-" + testutils.TestOpts.RunName)

	resp, err := conn.Submit(ctx, pebblex.NewInsertCommand(pebblex.BlobDatabaseTest, key, []byte("value")))
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusSuccess, resp.Status)

	resp, err = conn.Submit(ctx, pebblex.NewDeleteCommand(pebblex.BlobDatabaseTest, key))
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusSuccess, resp.Status)

	resp, err = conn.Submit(ctx, pebblex.NewDeleteCommand(pebblex.BlobDatabaseTest, key))
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusKeyDoesNotExist, resp.Status)
}

func TestIntReorderApps(t *testing.T) {
	conn := connectRealWatch(t)
	testutils.SkipIfUnsupportedFeature(t, testutils.TestFeatureAppReorder)

	status, err := conn.ReorderApps(context.Background(), []uuid.UUID{})
	require.NoError(t, err)
	assert.Equal(t, pebblex.BlobStatusSuccess, status)
}

package cobblecorex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebble-dev/cobblecorex/pebblex"
)

func nextWithin(t *testing.T, sub *Subscription) (*pebblex.Packet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sub.Next(ctx)
}

func TestSubscriptionSetFiltersEndpoints(t *testing.T) {
	set := newSubscriptionSet()

	all := set.Subscribe(nil)
	logs := set.Subscribe([]pebblex.Endpoint{pebblex.EndpointLogs})
	assert.Equal(t, 2, set.Len())

	ping := &pebblex.Packet{Endpoint: pebblex.EndpointPing, Payload: []byte{0x01}}
	logMsg := &pebblex.Packet{Endpoint: pebblex.EndpointLogs, Payload: []byte{0x02}}

	assert.Equal(t, 1, set.Publish(ping))
	assert.Equal(t, 2, set.Publish(logMsg))

	pak, err := nextWithin(t, all)
	require.NoError(t, err)
	assert.Same(t, ping, pak)

	pak, err = nextWithin(t, all)
	require.NoError(t, err)
	assert.Same(t, logMsg, pak)

	pak, err = nextWithin(t, logs)
	require.NoError(t, err)
	assert.Same(t, logMsg, pak)
}

func TestSubscriptionSetCloseAllDrainsThenCloses(t *testing.T) {
	set := newSubscriptionSet()
	sub := set.Subscribe(nil)

	pak := &pebblex.Packet{Endpoint: pebblex.EndpointPing}
	set.Publish(pak)
	set.CloseAll()
	assert.Equal(t, 0, set.Len())

	got, err := nextWithin(t, sub)
	require.NoError(t, err)
	assert.Same(t, pak, got)

	_, err = nextWithin(t, sub)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)

	late := set.Subscribe(nil)
	_, err = nextWithin(t, late)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.Equal(t, 0, set.Publish(pak))
}

func TestSubscriptionClose(t *testing.T) {
	set := newSubscriptionSet()
	sub := set.Subscribe(nil)
	other := set.Subscribe(nil)

	set.Publish(&pebblex.Packet{Endpoint: pebblex.EndpointPing})
	sub.Close()
	assert.Equal(t, 1, set.Len())

	_, err := nextWithin(t, sub)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)

	assert.Equal(t, 1, set.Publish(&pebblex.Packet{Endpoint: pebblex.EndpointPing}))
	other.Close()
}

func TestSubscriptionNextContext(t *testing.T) {
	set := newSubscriptionSet()
	sub := set.Subscribe(nil)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnectionSubscriptionEndsWithConnection(t *testing.T) {
	conn, watch, _ := connectTestWatch(t, nil)

	sub := conn.Subscribe(pebblex.EndpointMusicControl)
	require.NoError(t, watch.Send(&pebblex.Packet{
		Endpoint: pebblex.EndpointMusicControl,
		Payload:  []byte{0x01},
	}))

	pak, err := nextWithin(t, sub)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, pak.Payload)

	require.NoError(t, watch.Disconnect())
	<-conn.Done()

	_, err = nextWithin(t, sub)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)

	_, err = nextWithin(t, conn.Subscribe())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

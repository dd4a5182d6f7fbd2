package pebblex

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"
)

const (
	wsOriginWatch   = 0x00
	wsRelayToWatch  = 0x01
	wsMaxMessageLen = frameHeaderLen + MaxPayloadLen + 1
)

// websocketTransport carries the byte stream over a developer connection
// websocket.  Every message is prefixed with an origin byte; only messages
// relayed from the watch are part of the stream, everything else is
// control traffic of the relay and is skipped.
type websocketTransport struct {
	ws *websocket.Conn

	readLock sync.Mutex
	reader   io.Reader

	writeLock sync.Mutex
	writeBuf  []byte
}

func dialWebsocket(ctx context.Context, url string, header http.Header) (Transport, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "websocket dial")
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return newWebsocketTransport(ws), nil
}

func newWebsocketTransport(ws *websocket.Conn) *websocketTransport {
	ws.SetReadLimit(wsMaxMessageLen)
	return &websocketTransport{
		ws: ws,
	}
}

func (t *websocketTransport) Read(p []byte) (int, error) {
	t.readLock.Lock()
	defer t.readLock.Unlock()

	for {
		if t.reader == nil {
			msgType, r, err := t.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				continue
			}

			var origin [1]byte
			if _, err := io.ReadFull(r, origin[:]); err != nil {
				continue
			}
			if origin[0] != wsOriginWatch {
				continue
			}

			t.reader = r
		}

		n, err := t.reader.Read(p)
		if err == io.EOF {
			t.reader = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (t *websocketTransport) Write(p []byte) (int, error) {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	t.writeBuf = append(t.writeBuf[:0], wsRelayToWatch)
	t.writeBuf = append(t.writeBuf, p...)

	if err := t.ws.WriteMessage(websocket.BinaryMessage, t.writeBuf); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *websocketTransport) Close() error {
	return t.ws.Close()
}

//go:build linux

package pebblex

import (
	"context"
	"os"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func dialRFCOMM(ctx context.Context, address string, channel uint8) (Transport, error) {
	addr, err := parseBluetoothAddress(address)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "rfcomm socket")
	}

	// connect(2) on an RFCOMM socket blocks for the whole baseband page and
	// SDP exchange, so it runs aside while we wait on the context.
	connectCh := make(chan error, 1)
	go func() {
		connectCh <- unix.Connect(fd, &unix.SockaddrRFCOMM{
			Addr:    addr,
			Channel: channel,
		})
	}()

	select {
	case err = <-connectCh:
	case <-ctx.Done():
		go func() {
			<-connectCh
			_ = unix.Close(fd)
		}()
		return nil, ctx.Err()
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, pkgerrors.Wrap(err, "rfcomm connect")
	}

	// a non-blocking descriptor lets os.File use the runtime poller, which
	// is what allows Close to interrupt a blocked Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, pkgerrors.Wrap(err, "rfcomm set nonblock")
	}

	return os.NewFile(uintptr(fd), "rfcomm:"+address), nil
}

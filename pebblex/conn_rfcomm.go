package pebblex

import (
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

const (
	// SerialPortUUID is the SPP service class the watch exposes its
	// protocol channel under.
	SerialPortUUID = "00001101-0000-1000-8000-00805f9b34fb"

	DefaultRFCOMMChannel uint8 = 1
)

// parseBluetoothAddress parses a colon separated MAC address into the
// little endian byte order used by the kernel socket address.
func parseBluetoothAddress(address string) ([6]uint8, error) {
	var addr [6]uint8

	parts := strings.Split(address, ":")
	if len(parts) != 6 {
		return addr, pkgerrors.Errorf("invalid bluetooth address %q", address)
	}

	for i, part := range parts {
		b, err := strconv.ParseUint(part, 16, 8)
		if err != nil || len(part) != 2 {
			return addr, pkgerrors.Errorf("invalid bluetooth address %q", address)
		}
		addr[5-i] = uint8(b)
	}

	return addr, nil
}

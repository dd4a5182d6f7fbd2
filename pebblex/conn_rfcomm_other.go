//go:build !linux

package pebblex

import "context"

func dialRFCOMM(ctx context.Context, address string, channel uint8) (Transport, error) {
	if _, err := parseBluetoothAddress(address); err != nil {
		return nil, err
	}

	return nil, ErrTransportUnsupported
}

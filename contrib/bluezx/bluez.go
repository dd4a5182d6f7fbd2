// Package bluezx lists the watches BlueZ knows about over the system D-Bus.
package bluezx

import (
	"context"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const (
	busName         = "org.bluez"
	deviceInterface = "org.bluez.Device1"

	// SerialPortUUID is the profile a watch exposes its packet stream on.
	SerialPortUUID = "00001101-0000-1000-8000-00805f9b34fb"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Device is a Bluetooth device known to BlueZ.
type Device struct {
	Path      dbus.ObjectPath
	Address   string
	Name      string
	Alias     string
	Paired    bool
	Connected bool
	UUIDs     []string
}

// IsWatch reports whether the device offers the serial port profile and
// looks like a Pebble.
func (d Device) IsWatch() bool {
	if !d.hasUUID(SerialPortUUID) {
		return false
	}
	return strings.HasPrefix(d.Name, "Pebble") || strings.HasPrefix(d.Alias, "Pebble")
}

func (d Device) hasUUID(uuid string) bool {
	for _, u := range d.UUIDs {
		if strings.EqualFold(u, uuid) {
			return true
		}
	}
	return false
}

// Lister queries BlueZ on a D-Bus connection.
type Lister struct {
	conn *dbus.Conn
}

func NewLister(conn *dbus.Conn) *Lister {
	return &Lister{conn: conn}
}

// ConnectSystemBus connects to the shared system bus BlueZ lives on.
func ConnectSystemBus() (*Lister, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to system bus")
	}

	return NewLister(conn), nil
}

// Devices returns every device BlueZ knows about, sorted by address.
func (l *Lister) Devices(ctx context.Context) ([]Device, error) {
	objects := make(managedObjects)
	obj := l.conn.Object(busName, "/")
	err := obj.CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&objects)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bluez objects")
	}

	return devicesFromObjects(objects), nil
}

// PairedWatches returns the paired devices which look like watches.
func (l *Lister) PairedWatches(ctx context.Context) ([]Device, error) {
	devices, err := l.Devices(ctx)
	if err != nil {
		return nil, err
	}

	var watches []Device
	for _, device := range devices {
		if device.Paired && device.IsWatch() {
			watches = append(watches, device)
		}
	}
	return watches, nil
}

func devicesFromObjects(objects managedObjects) []Device {
	var devices []Device
	for path, ifaces := range objects {
		props, ok := ifaces[deviceInterface]
		if !ok {
			continue
		}

		devices = append(devices, Device{
			Path:      path,
			Address:   stringProp(props, "Address"),
			Name:      stringProp(props, "Name"),
			Alias:     stringProp(props, "Alias"),
			Paired:    boolProp(props, "Paired"),
			Connected: boolProp(props, "Connected"),
			UUIDs:     stringsProp(props, "UUIDs"),
		})
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Address < devices[j].Address
	})
	return devices
}

func stringProp(props map[string]dbus.Variant, name string) string {
	v, ok := props[name]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

func boolProp(props map[string]dbus.Variant, name string) bool {
	v, ok := props[name]
	if !ok {
		return false
	}
	b, _ := v.Value().(bool)
	return b
}

func stringsProp(props map[string]dbus.Variant, name string) []string {
	v, ok := props[name]
	if !ok {
		return nil
	}
	s, _ := v.Value().([]string)
	return s
}

package pebblex

import (
	"encoding/binary"
	"encoding/hex"
)

// Endpoint identifies the service a frame is addressed to on the watch.
type Endpoint uint16

const (
	EndpointTime          = Endpoint(0x000b)
	EndpointVersion       = Endpoint(0x0010)
	EndpointPhoneVersion  = Endpoint(0x0011)
	EndpointSystemMessage = Endpoint(0x0012)
	EndpointMusicControl  = Endpoint(0x0020)
	EndpointPhoneControl  = Endpoint(0x0021)
	EndpointAppMessage    = Endpoint(0x0030)
	EndpointAppLaunch     = Endpoint(0x0031)
	EndpointLogs          = Endpoint(0x07d6)
	EndpointPing          = Endpoint(0x07d1)
	EndpointPutBytes      = Endpoint(0xbeef)
	EndpointAppFetch      = Endpoint(0x1771)
	EndpointAppReorder    = Endpoint(0xabcd)
	EndpointBlobDB        = Endpoint(0xb1db)
)

func (e Endpoint) String() string {
	switch e {
	case EndpointTime:
		return "Time"
	case EndpointVersion:
		return "Version"
	case EndpointPhoneVersion:
		return "PhoneVersion"
	case EndpointSystemMessage:
		return "SystemMessage"
	case EndpointMusicControl:
		return "MusicControl"
	case EndpointPhoneControl:
		return "PhoneControl"
	case EndpointAppMessage:
		return "AppMessage"
	case EndpointAppLaunch:
		return "AppLaunch"
	case EndpointLogs:
		return "Logs"
	case EndpointPing:
		return "Ping"
	case EndpointPutBytes:
		return "PutBytes"
	case EndpointAppFetch:
		return "AppFetch"
	case EndpointAppReorder:
		return "AppReorder"
	case EndpointBlobDB:
		return "BlobDB"
	}

	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(e))
	return "x" + hex.EncodeToString(buf)
}

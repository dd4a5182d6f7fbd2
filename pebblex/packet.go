package pebblex

import "encoding/binary"

// Packet is a single decoded frame.  Payload is owned by the packet and is
// never reused by the reader once handed out.
type Packet struct {
	Endpoint Endpoint
	Payload  []byte
}

// Token returns the correlation token embedded in the packet, if the packet
// belongs to a token-correlated protocol.  Only BlobDB responses carry one,
// other BlobDB packets never match a pending request.
func (p *Packet) Token() (uint16, bool) {
	if p.Endpoint != EndpointBlobDB {
		return 0, false
	}

	if len(p.Payload) != blobResponseLen {
		return 0, false
	}

	return binary.LittleEndian.Uint16(p.Payload[0:]), true
}

package pebblex

import (
	"encoding/binary"
	"io"
)

const (
	frameHeaderLen = 4

	// MaxPayloadLen is the largest payload the watch firmware accepts in a
	// single frame.  Anything announcing a larger length is treated as
	// corruption by the reader.
	MaxPayloadLen = 8192
)

// AppendFrame appends the wire encoding of pak to buf.
func AppendFrame(buf []byte, pak *Packet) ([]byte, error) {
	if pak.Endpoint == 0 {
		return nil, protocolError{"cannot encode a frame without an endpoint"}
	}

	if len(pak.Payload) > MaxPayloadLen {
		return nil, protocolError{"payload too long to encode"}
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(pak.Payload)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(pak.Endpoint))
	buf = append(buf, pak.Payload...)
	return buf, nil
}

type PacketWriter struct {
	// we use a heap-allocated write buffer since io.Write will cause
	// the buffer to escape regardless of what we want.
	writeBuf []byte
}

func (pw *PacketWriter) WritePacket(w io.Writer, pak *Packet) error {
	totalLen := frameHeaderLen + len(pak.Payload)
	if cap(pw.writeBuf) < totalLen {
		pw.writeBuf = make([]byte, 0, totalLen)
	}

	buf, err := AppendFrame(pw.writeBuf[:0], pak)
	if err != nil {
		return err
	}
	pw.writeBuf = buf

	// Write guarentees that err is returned if n<len, so we can just ignore
	// n and only inspect the error to determine if something went wrong...
	_, err = w.Write(buf)
	return err
}

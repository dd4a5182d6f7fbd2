package pebblex

import (
	"encoding/binary"
	"errors"
	"io"
)

const readChunkSize = 4096

// DecodeFrame decodes a single frame from the start of buf.  It returns the
// decoded packet along with the number of bytes consumed from buf.  When buf
// holds only part of a frame ErrNeedMoreData is returned and nothing is
// consumed.  When the header at the start of buf cannot be a real frame a
// *MalformedFrameError is returned and the caller should drop the reported
// number of bytes before trying again.
func DecodeFrame(buf []byte) (*Packet, int, error) {
	if len(buf) < frameHeaderLen {
		return nil, 0, ErrNeedMoreData
	}

	if reason := checkFrameHeader(buf); reason != "" {
		return nil, 1, &MalformedFrameError{
			Reason:    reason,
			Discarded: 1,
		}
	}

	payloadLen := int(binary.BigEndian.Uint16(buf[0:]))
	totalLen := frameHeaderLen + payloadLen
	if len(buf) < totalLen {
		return nil, 0, ErrNeedMoreData
	}

	// the payload escapes through the packet, so it always gets its own
	// allocation rather than aliasing the read buffer.
	payload := make([]byte, payloadLen)
	copy(payload, buf[frameHeaderLen:totalLen])

	return &Packet{
		Endpoint: Endpoint(binary.BigEndian.Uint16(buf[2:])),
		Payload:  payload,
	}, totalLen, nil
}

func checkFrameHeader(header []byte) string {
	if int(binary.BigEndian.Uint16(header[0:])) > MaxPayloadLen {
		return "payload length exceeds maximum"
	}

	if binary.BigEndian.Uint16(header[2:]) == 0 {
		return "zero endpoint"
	}

	return ""
}

// PacketReader performs resumable frame decoding over a byte stream.  Bytes
// which were read but not yet consumed are kept between calls.
type PacketReader struct {
	buf     []byte
	readBuf []byte
	readErr error
}

// ReadPacket blocks until a full packet is available.  A *MalformedFrameError
// is returned after corrupt bytes were skipped; the reader stays usable and
// the next call continues at the following frame boundary.  Any error from
// the underlying reader is returned once all buffered frames were handed out.
func (pr *PacketReader) ReadPacket(r io.Reader, pak *Packet) error {
	if len(pr.readBuf) != readChunkSize {
		pr.readBuf = make([]byte, readChunkSize)
	}

	for {
		decoded, n, err := DecodeFrame(pr.buf)
		if err == nil {
			pr.consume(n)
			*pak = *decoded
			return nil
		}

		var malformedErr *MalformedFrameError
		if errors.As(err, &malformedErr) {
			malformedErr.Discarded = pr.resync()
			return malformedErr
		}

		if pr.readErr != nil {
			return pr.readErr
		}

		nr, err := r.Read(pr.readBuf)
		if nr > 0 {
			pr.buf = append(pr.buf, pr.readBuf[:nr]...)
		}
		if err != nil {
			pr.readErr = err
		}
	}
}

// Buffered returns the number of bytes read from the stream which have not
// yet been decoded.
func (pr *PacketReader) Buffered() int {
	return len(pr.buf)
}

// resync drops the corrupt byte at the head of the buffer and then keeps
// dropping bytes until the buffer starts with a plausible frame header or
// there are too few bytes left to judge.
func (pr *PacketReader) resync() int {
	discarded := 1
	for len(pr.buf)-discarded >= frameHeaderLen {
		if checkFrameHeader(pr.buf[discarded:]) == "" {
			break
		}
		discarded++
	}

	pr.consume(discarded)
	return discarded
}

func (pr *PacketReader) consume(n int) {
	remaining := copy(pr.buf, pr.buf[n:])
	pr.buf = pr.buf[:remaining]
}

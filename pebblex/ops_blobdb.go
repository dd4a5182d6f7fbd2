package pebblex

import (
	"encoding/binary"
	"math"
)

const (
	blobResponseLen  = 3
	blobCommonHdrLen = 4
)

// BlobCommand is a single BlobDB request.  Token is rewritten every time the
// command is dispatched, so the same command may be sent more than once.
type BlobCommand struct {
	Op       BlobOp
	Token    uint16
	Database BlobDatabase
	Key      []byte
	Value    []byte
}

func NewInsertCommand(db BlobDatabase, key, value []byte) *BlobCommand {
	return &BlobCommand{
		Op:       BlobOpInsert,
		Database: db,
		Key:      key,
		Value:    value,
	}
}

func NewDeleteCommand(db BlobDatabase, key []byte) *BlobCommand {
	return &BlobCommand{
		Op:       BlobOpDelete,
		Database: db,
		Key:      key,
	}
}

func NewClearCommand(db BlobDatabase) *BlobCommand {
	return &BlobCommand{
		Op:       BlobOpClear,
		Database: db,
	}
}

// AppendTo appends the BlobDB payload for the command to buf.
func (c *BlobCommand) AppendTo(buf []byte) ([]byte, error) {
	switch c.Op {
	case BlobOpInsert, BlobOpDelete:
		if len(c.Key) == 0 {
			return nil, protocolError{"key is required for " + c.Op.String()}
		}
		if len(c.Key) > math.MaxUint8 {
			return nil, protocolError{"key too long to encode"}
		}
	case BlobOpClear:
		if len(c.Key) > 0 || len(c.Value) > 0 {
			return nil, protocolError{"clear cannot carry a key or value"}
		}
	default:
		return nil, protocolError{"unknown blob operation " + c.Op.String()}
	}

	if c.Op != BlobOpInsert && len(c.Value) > 0 {
		return nil, protocolError{"only insert can carry a value"}
	}
	if len(c.Value) > math.MaxUint16 {
		return nil, protocolError{"value too long to encode"}
	}

	buf = append(buf, byte(c.Op))
	buf = binary.LittleEndian.AppendUint16(buf, c.Token)
	buf = append(buf, byte(c.Database))

	if c.Op == BlobOpClear {
		return buf, nil
	}

	buf = append(buf, uint8(len(c.Key)))
	buf = append(buf, c.Key...)

	if c.Op == BlobOpInsert {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(c.Value)))
		buf = append(buf, c.Value...)
	}

	return buf, nil
}

// ParseBlobCommand decodes a BlobDB request payload.  It is the inverse of
// AppendTo and is mostly useful for things pretending to be a watch.
func ParseBlobCommand(payload []byte) (*BlobCommand, error) {
	if len(payload) < blobCommonHdrLen {
		return nil, protocolError{"blob command too short"}
	}

	cmd := &BlobCommand{
		Op:       BlobOp(payload[0]),
		Token:    binary.LittleEndian.Uint16(payload[1:]),
		Database: BlobDatabase(payload[3]),
	}
	pos := blobCommonHdrLen

	switch cmd.Op {
	case BlobOpClear:
		return cmd, nil
	case BlobOpInsert, BlobOpDelete:
	default:
		return nil, protocolError{"unknown blob operation " + cmd.Op.String()}
	}

	if len(payload) < pos+1 {
		return nil, protocolError{"blob command missing key length"}
	}
	keyLen := int(payload[pos])
	pos++

	if len(payload) < pos+keyLen {
		return nil, protocolError{"blob command key truncated"}
	}
	cmd.Key = payload[pos : pos+keyLen]
	pos += keyLen

	if cmd.Op == BlobOpDelete {
		return cmd, nil
	}

	if len(payload) < pos+2 {
		return nil, protocolError{"blob command missing value length"}
	}
	valueLen := int(binary.LittleEndian.Uint16(payload[pos:]))
	pos += 2

	if len(payload) < pos+valueLen {
		return nil, protocolError{"blob command value truncated"}
	}
	cmd.Value = payload[pos : pos+valueLen]

	return cmd, nil
}

type BlobResponse struct {
	Token  uint16
	Status BlobStatus
}

func (r *BlobResponse) AppendTo(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, r.Token)
	return append(buf, byte(r.Status))
}

func ParseBlobResponse(payload []byte) (*BlobResponse, error) {
	if len(payload) != blobResponseLen {
		return nil, protocolError{"bad blob response length"}
	}

	return &BlobResponse{
		Token:  binary.LittleEndian.Uint16(payload[0:]),
		Status: BlobStatus(payload[2]),
	}, nil
}

type OpsBlobDB struct {
}

// Send dispatches cmd with a freshly assigned token.  cb receives the decoded
// response, or the error which resolved the request instead of one.
func (o OpsBlobDB) Send(d Dispatcher, cmd *BlobCommand, cb func(*BlobResponse, error)) (PendingOp, error) {
	return d.Dispatch(EndpointBlobDB, func(token uint16) ([]byte, error) {
		cmd.Token = token
		return cmd.AppendTo(nil)
	}, func(resp *Packet, err error) {
		if err != nil {
			cb(nil, err)
			return
		}

		blobResp, err := ParseBlobResponse(resp.Payload)
		if err != nil {
			cb(nil, err)
			return
		}

		cb(blobResp, nil)
	})
}

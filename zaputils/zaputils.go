package zaputils

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func DeviceAddress(key string, val string) zap.Field {
	return zap.String(key, val)
}

func Token(key string, val uint16) zap.Field {
	return zap.String(key, fmt.Sprintf("0x%04x", val))
}

// RecordKey logs BlobDB keys, which are UUIDs for every database the phone
// writes to, in their usual textual form and anything else as hex.
func RecordKey(key string, val []byte) zap.Field {
	return zap.Stringer(key, loggableRecordKey(val))
}

type loggableRecordKey []byte

func (k loggableRecordKey) String() string {
	if len(k) == 16 {
		return uuid.UUID(k).String()
	}
	return hex.EncodeToString(k)
}

type LoggableBlobRecord struct {
	Database fmt.Stringer
	Key      []byte
}

func (e LoggableBlobRecord) String() string {
	if e.Key == nil {
		return e.Database.String()
	}

	return fmt.Sprintf("%s/%s", e.Database, loggableRecordKey(e.Key))
}

func BlobRecord(key string, db fmt.Stringer, recordKey []byte) zap.Field {
	return zap.Stringer(key, LoggableBlobRecord{
		Database: db,
		Key:      recordKey,
	})
}

func BlobDatabase(key string, db fmt.Stringer) zap.Field {
	// we just reuse the same logic as above
	return BlobRecord(key, db, nil)
}

package pebblex

import "encoding/hex"

// BlobOp is the command byte of a BlobDB request.
type BlobOp uint8

const (
	BlobOpInsert = BlobOp(0x01)
	BlobOpDelete = BlobOp(0x04)
	BlobOpClear  = BlobOp(0x05)
)

func (o BlobOp) String() string {
	switch o {
	case BlobOpInsert:
		return "Insert"
	case BlobOpDelete:
		return "Delete"
	case BlobOpClear:
		return "Clear"
	}

	return "x" + hex.EncodeToString([]byte{byte(o)})
}

// BlobDatabase identifies one of the key/value databases kept on the watch.
type BlobDatabase uint8

const (
	BlobDatabaseTest         = BlobDatabase(0x00)
	BlobDatabasePin          = BlobDatabase(0x01)
	BlobDatabaseApp          = BlobDatabase(0x02)
	BlobDatabaseReminder     = BlobDatabase(0x03)
	BlobDatabaseNotification = BlobDatabase(0x04)
	BlobDatabaseWeather      = BlobDatabase(0x05)
	BlobDatabaseAppGlance    = BlobDatabase(0x0b)
)

func (d BlobDatabase) String() string {
	switch d {
	case BlobDatabaseTest:
		return "Test"
	case BlobDatabasePin:
		return "Pin"
	case BlobDatabaseApp:
		return "App"
	case BlobDatabaseReminder:
		return "Reminder"
	case BlobDatabaseNotification:
		return "Notification"
	case BlobDatabaseWeather:
		return "Weather"
	case BlobDatabaseAppGlance:
		return "AppGlance"
	}

	return "x" + hex.EncodeToString([]byte{byte(d)})
}

// BlobStatus is the result code of a BlobDB response.
type BlobStatus uint8

const (
	// BlobStatusSuccess indicates the operation was applied.
	BlobStatusSuccess = BlobStatus(0x01)

	// BlobStatusGeneralFailure is reported for any failure without a more
	// specific code.
	BlobStatusGeneralFailure = BlobStatus(0x02)

	BlobStatusInvalidOperation  = BlobStatus(0x03)
	BlobStatusInvalidDatabaseID = BlobStatus(0x04)
	BlobStatusInvalidData       = BlobStatus(0x05)
	BlobStatusKeyDoesNotExist   = BlobStatus(0x06)
	BlobStatusDatabaseFull      = BlobStatus(0x07)
	BlobStatusDataStale         = BlobStatus(0x08)
	BlobStatusNotSupported      = BlobStatus(0x09)
	BlobStatusLocked            = BlobStatus(0x0a)

	// BlobStatusTryLater indicates the watch is busy, the same request should
	// be sent again after a short delay.
	BlobStatusTryLater = BlobStatus(0x0b)

	// BlobStatusWatchDisconnected never appears on the wire.  It is produced
	// locally when no response could be obtained from the watch.
	BlobStatusWatchDisconnected = BlobStatus(0xff)
)

func (s BlobStatus) String() string {
	switch s {
	case BlobStatusSuccess:
		return "Success"
	case BlobStatusGeneralFailure:
		return "GeneralFailure"
	case BlobStatusInvalidOperation:
		return "InvalidOperation"
	case BlobStatusInvalidDatabaseID:
		return "InvalidDatabaseID"
	case BlobStatusInvalidData:
		return "InvalidData"
	case BlobStatusKeyDoesNotExist:
		return "KeyDoesNotExist"
	case BlobStatusDatabaseFull:
		return "DatabaseFull"
	case BlobStatusDataStale:
		return "DataStale"
	case BlobStatusNotSupported:
		return "NotSupported"
	case BlobStatusLocked:
		return "Locked"
	case BlobStatusTryLater:
		return "TryLater"
	case BlobStatusWatchDisconnected:
		return "WatchDisconnected"
	}

	return "x" + hex.EncodeToString([]byte{byte(s)})
}

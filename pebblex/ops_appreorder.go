package pebblex

import (
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

const appReorderCommand = 0x01

type AppOrderResultCode uint8

const (
	AppOrderResultSuccess = AppOrderResultCode(0x01)
	AppOrderResultFailed  = AppOrderResultCode(0x02)
	AppOrderResultInvalid = AppOrderResultCode(0x03)
	AppOrderResultRetry   = AppOrderResultCode(0x04)
)

func (c AppOrderResultCode) String() string {
	switch c {
	case AppOrderResultSuccess:
		return "Success"
	case AppOrderResultFailed:
		return "Failed"
	case AppOrderResultInvalid:
		return "Invalid"
	case AppOrderResultRetry:
		return "Retry"
	}

	return "x" + hex.EncodeToString([]byte{byte(c)})
}

// AppReorderRequest asks the watch to order its app menu to match AppIDs.
type AppReorderRequest struct {
	AppIDs []uuid.UUID
}

func (r *AppReorderRequest) AppendTo(buf []byte) ([]byte, error) {
	if len(r.AppIDs) > math.MaxUint8 {
		return nil, protocolError{"too many apps to reorder"}
	}

	buf = append(buf, appReorderCommand, uint8(len(r.AppIDs)))
	for _, id := range r.AppIDs {
		buf = append(buf, id[:]...)
	}

	return buf, nil
}

func ParseAppReorderRequest(payload []byte) (*AppReorderRequest, error) {
	if len(payload) < 2 || payload[0] != appReorderCommand {
		return nil, protocolError{"bad app reorder request"}
	}

	count := int(payload[1])
	if len(payload) != 2+count*16 {
		return nil, protocolError{"bad app reorder request length"}
	}

	req := &AppReorderRequest{
		AppIDs: make([]uuid.UUID, count),
	}
	for i := range req.AppIDs {
		copy(req.AppIDs[i][:], payload[2+i*16:])
	}

	return req, nil
}

type AppReorderResult struct {
	Status AppOrderResultCode
}

func (r *AppReorderResult) AppendTo(buf []byte) []byte {
	return append(buf, appReorderCommand, byte(r.Status))
}

func ParseAppReorderResult(payload []byte) (*AppReorderResult, error) {
	if len(payload) != 2 || payload[0] != appReorderCommand {
		return nil, protocolError{"bad app reorder result"}
	}

	return &AppReorderResult{
		Status: AppOrderResultCode(payload[1]),
	}, nil
}

type OpsAppReorder struct {
}

// Send writes the reorder request.  The watch answers on the same endpoint
// without a token, so matching the result is left to the caller.
func (o OpsAppReorder) Send(s PacketSender, req *AppReorderRequest) error {
	payload, err := req.AppendTo(nil)
	if err != nil {
		return err
	}

	return s.WritePacket(&Packet{
		Endpoint: EndpointAppReorder,
		Payload:  payload,
	})
}

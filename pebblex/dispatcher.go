package pebblex

type PendingOp interface {
	Cancel(err error) bool
}

// DispatchCallback receives either the response packet for a request or the
// error which resolved it instead.  It is invoked at most once.
type DispatchCallback func(*Packet, error)

// PayloadEncoder builds a request payload once the token for it is known.
type PayloadEncoder func(token uint16) ([]byte, error)

type Dispatcher interface {
	Dispatch(endpoint Endpoint, encode PayloadEncoder, handler DispatchCallback) (PendingOp, error)
}

// PacketSender writes packets which expect no correlated response.
type PacketSender interface {
	WritePacket(pak *Packet) error
}

package pebblex

type clientPendingOp struct {
	client *Client
	token  uint16
}

func (po clientPendingOp) Cancel(err error) bool {
	return po.client.tokens.Cancel(po.token, requestCancelledError{cause: err})
}

// Token returns the token the request was sent with.
func (po clientPendingOp) Token() uint16 {
	return po.token
}

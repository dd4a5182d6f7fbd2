package pebblex

// pendingOpNoop stands in for a request which was already resolved by the
// time its PendingOp was handed out, so there is nothing left to cancel.
type pendingOpNoop struct {
}

func (p pendingOpNoop) Cancel(err error) bool {
	return false
}

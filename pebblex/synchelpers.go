package pebblex

type unaryResult[RespT any] struct {
	Resp RespT
	Err  error
}

// syncUnaryCall runs an asynchronous request and blocks until it has been
// resolved.  It is mostly used by tests.
func syncUnaryCall[OpsT any, ReqT any, RespT any](
	ops OpsT,
	send func(OpsT, Dispatcher, ReqT, func(RespT, error)) (PendingOp, error),
	d Dispatcher,
	req ReqT,
) (RespT, error) {
	resultCh := make(chan unaryResult[RespT], 1)

	_, err := send(ops, d, req, func(resp RespT, err error) {
		resultCh <- unaryResult[RespT]{Resp: resp, Err: err}
	})
	if err != nil {
		var zero RespT
		return zero, err
	}

	res := <-resultCh
	return res.Resp, res.Err
}

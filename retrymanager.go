package cobblecorex

import (
	"context"
	"errors"
	"time"
)

// RetryController makes the retry decisions for a single request.
type RetryController interface {
	ShouldRetry(err error) (time.Duration, bool)
}

type RetryManager interface {
	NewRetryController() RetryController
}

// OrchestrateRetries calls fn until it succeeds, fails with an error the
// retry controller does not want to retry, or ctx ends.  When ctx ends while
// waiting to retry, the last response is returned with an error wrapping
// the context error.
func OrchestrateRetries[RespT any](
	ctx context.Context,
	rs RetryManager,
	fn func() (RespT, error),
) (RespT, error) {
	var controller RetryController
	var prevErr error

	for {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		if errors.Is(err, context.DeadlineExceeded) {
			return res, retrierDeadlineError{Cause: err, RetryCause: prevErr}
		}

		// the controller is only needed once something failed.
		if controller == nil {
			controller = rs.NewRetryController()
		}

		delay, retry := controller.ShouldRetry(err)
		if !retry {
			return res, err
		}

		if waitErr := waitForRetry(ctx, delay); waitErr != nil {
			if errors.Is(waitErr, context.DeadlineExceeded) {
				return res, retrierDeadlineError{Cause: waitErr, RetryCause: err}
			}
			return res, waitErr
		}

		prevErr = err
	}
}

func waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package cobblecorex

import (
	"errors"
	"time"
)

// DefaultTryLaterInterval is how long to wait before repeating a request the
// watch answered with TryLater.
const DefaultTryLaterInterval = 1 * time.Second

// RetryManagerTryLater repeats requests which the watch answered with
// TryLater and nothing else.  With MaxRetries at zero the request is
// repeated until the watch gives another answer or the caller's context
// ends.
type RetryManagerTryLater struct {
	calc       BackoffCalculator
	maxRetries uint32
}

type RetryManagerTryLaterOptions struct {
	Backoff    BackoffCalculator
	MaxRetries uint32
}

func NewRetryManagerTryLater(opts *RetryManagerTryLaterOptions) *RetryManagerTryLater {
	if opts == nil {
		opts = &RetryManagerTryLaterOptions{}
	}

	calc := opts.Backoff
	if calc == nil {
		calc = FixedBackoff(DefaultTryLaterInterval)
	}

	return &RetryManagerTryLater{
		calc:       calc,
		maxRetries: opts.MaxRetries,
	}
}

func (m *RetryManagerTryLater) NewRetryController() RetryController {
	return &retryControllerTryLater{
		parent: m,
	}
}

type retryControllerTryLater struct {
	parent     *RetryManagerTryLater
	retryCount uint32
}

func (rc *retryControllerTryLater) ShouldRetry(err error) (time.Duration, bool) {
	if !errors.Is(err, ErrTryLater) {
		return 0, false
	}

	if rc.parent.maxRetries > 0 && rc.retryCount >= rc.parent.maxRetries {
		return 0, false
	}

	retryTime := rc.parent.calc(rc.retryCount)
	rc.retryCount++

	return retryTime, true
}

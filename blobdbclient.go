package cobblecorex

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pebble-dev/cobblecorex/pebblex"
	"github.com/pebble-dev/cobblecorex/zaputils"
)

// DefaultRequestTimeout bounds how long a single BlobDB attempt waits for
// the watch to answer.
const DefaultRequestTimeout = 10 * time.Second

type BlobDBClientOptions struct {
	Logger *zap.Logger

	// RequestTimeout bounds every attempt separately, the caller's context
	// bounds the request as a whole.
	RequestTimeout time.Duration

	// RetryManager decides which answers are repeated.  It defaults to
	// repeating TryLater answers once a second for as long as it takes.
	RetryManager RetryManager

	// DeviceAddress is only used to annotate telemetry.
	DeviceAddress string

	// TracerProvider overrides the global otel tracer provider.
	TracerProvider trace.TracerProvider
}

// BlobDBClient correlates BlobDB commands with the watch's answers and
// takes care of timeouts and of repeating commands the watch was not ready
// for.
type BlobDBClient struct {
	dispatcher     pebblex.Dispatcher
	logger         *zap.Logger
	requestTimeout time.Duration
	retryManager   RetryManager
	telem          *blobDBTelem
}

func NewBlobDBClient(dispatcher pebblex.Dispatcher, opts *BlobDBClientOptions) *BlobDBClient {
	if opts == nil {
		opts = &BlobDBClientOptions{}
	}

	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	retryManager := opts.RetryManager
	if retryManager == nil {
		retryManager = NewRetryManagerTryLater(nil)
	}

	return &BlobDBClient{
		dispatcher:     dispatcher,
		logger:         loggerOrNop(opts.Logger),
		requestTimeout: requestTimeout,
		retryManager:   retryManager,
		telem:          newBlobDBTelem(opts.DeviceAddress, opts.TracerProvider),
	}
}

type blobDBResult struct {
	Resp *pebblex.BlobResponse
	Err  error
}

// Submit sends cmd and waits for the watch's answer.  Every attempt is sent
// with a fresh token, which is written into cmd.Token.
//
// Any status the watch answers with is returned as the response with a nil
// error, including TryLater once the retry manager gives up.  When no
// answer could be obtained the error matches ErrWatchDisconnected and wraps
// the cause: ErrRequestTimeout, pebblex.ErrClosedInFlight, ErrNotConnected
// or the context error.
func (c *BlobDBClient) Submit(ctx context.Context, cmd *pebblex.BlobCommand) (*pebblex.BlobResponse, error) {
	attempt := 0
	resp, err := OrchestrateRetries(ctx, c.retryManager, func() (*pebblex.BlobResponse, error) {
		if attempt > 0 {
			blobdbRetries.Add(ctx, 1)
			c.logger.Debug("repeating blobdb command",
				zap.Stringer("op", cmd.Op),
				zaputils.BlobRecord("record", cmd.Database, cmd.Key),
				zap.Int("attempt", attempt))
		}
		attempt++

		resp, err := c.submitOnce(ctx, cmd, attempt)
		if err != nil {
			return nil, err
		}

		if resp.Status == pebblex.BlobStatusTryLater {
			return resp, ErrTryLater
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, ErrTryLater) {
			return resp, nil
		}

		if !errors.Is(err, ErrWatchDisconnected) {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				err = &WatchDisconnectedError{Cause: err}
			}
		}

		return nil, err
	}

	return resp, nil
}

func (c *BlobDBClient) submitOnce(ctx context.Context, cmd *pebblex.BlobCommand, attempt int) (*pebblex.BlobResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &WatchDisconnectedError{Cause: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	attemptCtx, telemOp := c.telem.BeginOp(attemptCtx, cmd, attempt)

	resultCh := make(chan blobDBResult, 1)
	pendingOp, err := pebblex.OpsBlobDB{}.Send(c.dispatcher, cmd, func(resp *pebblex.BlobResponse, err error) {
		telemOp.MarkReceived()
		resultCh <- blobDBResult{
			Resp: resp,
			Err:  err,
		}
	})
	if err != nil {
		if errors.Is(err, pebblex.ErrClosed) {
			err = &WatchDisconnectedError{Cause: err}
		}

		telemOp.End(ctx, err)
		return nil, err
	}

	telemOp.MarkSent(cmd.Token)

	var res blobDBResult
	select {
	case res = <-resultCh:
	case <-attemptCtx.Done():
		pendingOp.Cancel(attemptCtx.Err())
		res = <-resultCh

		// the response or a teardown may have won the race against the
		// cancellation, in which case that is the result we report.
		if res.Err != nil && !errors.Is(res.Err, pebblex.ErrClosedInFlight) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				res.Err = &WatchDisconnectedError{Cause: ctxErr}
			} else {
				c.logger.Debug("blobdb command timed out",
					zap.Stringer("op", cmd.Op),
					zaputils.Token("token", cmd.Token),
					zaputils.BlobRecord("record", cmd.Database, cmd.Key),
					zap.Duration("timeout", c.requestTimeout))
				res.Err = &WatchDisconnectedError{Cause: ErrRequestTimeout}
			}
		}
	}

	if res.Err != nil {
		if errors.Is(res.Err, pebblex.ErrClosedInFlight) {
			res.Err = &WatchDisconnectedError{Cause: res.Err}
		}

		telemOp.End(ctx, res.Err)
		return nil, res.Err
	}

	telemOp.RecordStatus(res.Resp.Status)
	telemOp.End(ctx, nil)
	return res.Resp, nil
}

// StatusOf folds the outcome of Submit into a single status.  Every failure
// to get an answer from the watch becomes BlobStatusWatchDisconnected.
func StatusOf(resp *pebblex.BlobResponse, err error) pebblex.BlobStatus {
	if err != nil || resp == nil {
		return pebblex.BlobStatusWatchDisconnected
	}
	return resp.Status
}

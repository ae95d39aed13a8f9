package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/trentd187/golf-scorecard/internal/docstore"
)

// RetryPolicy bounds how hard a single write is pushed before it is reported as failed.
type RetryPolicy struct {
	MaxRetries      int           // retries after the first attempt
	Timeout         time.Duration // per attempt
	InitialInterval time.Duration // first backoff wait; doubles with jitter after that
}

// DefaultRetryPolicy is three retries with a five second attempt timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		Timeout:         5 * time.Second,
		InitialInterval: 100 * time.Millisecond,
	}
}

// withRetry runs op until it succeeds, fails permanently, exhausts the policy, or ctx ends.
func (g *Gateway) withRetry(ctx context.Context, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if g.retry.InitialInterval > 0 {
		b.InitialInterval = g.retry.InitialInterval
	}
	b.MaxElapsedTime = 0

	retries := g.retry.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	return backoff.Retry(func() error {
		attemptCtx := ctx
		if g.retry.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, g.retry.Timeout)
			defer cancel()
		}
		err := op(attemptCtx)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// isPermanent reports errors that another attempt cannot fix.
func isPermanent(err error) bool {
	if IsValidation(err) {
		return true
	}
	for _, target := range []error{
		docstore.ErrNotFound, docstore.ErrExists, docstore.ErrEmptyPath,
		docstore.ErrInvalidDocument, docstore.ErrClosed, context.Canceled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package itemsync

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often callers repeat a retryable call.
type RetryPolicy struct {
	Attempts        int
	InitialInterval time.Duration
}

// Retry runs op until it succeeds, returns a non-retryable error, or the
// attempts are used up. Waits grow exponentially from InitialInterval.
func Retry(ctx context.Context, p RetryPolicy, op func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.Attempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op(ctx)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

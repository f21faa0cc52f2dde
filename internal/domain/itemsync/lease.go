package itemsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"budgetmint/internal/infrastructure/store"
)

const leaseReleaseTimeout = 10 * time.Second

var errLeaseBusy = errors.New("lease busy")

func syncLeaseName(itemID string) string {
	return "sync:" + itemID
}

// acquireLease polls until the lease is taken or wait elapses.
func acquireLease(ctx context.Context, s store.Store, name, holder string, ttl, wait, poll time.Duration) error {
	attempts := uint64(0)
	if wait > 0 {
		attempts = uint64(wait / poll)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(poll), attempts), ctx)

	err := backoff.Retry(func() error {
		ok, err := s.AcquireLease(ctx, name, holder, ttl)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errLeaseBusy
		}
		return nil
	}, b)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errLeaseBusy):
		return ErrSyncInProgress
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: gave up waiting for lease: %w", ErrSyncInProgress, err)
	default:
		return fmt.Errorf("%w: acquire lease: %w", ErrPersistence, err)
	}
}

// renewLease extends a held lease. Losing it means another holder took over
// after expiry, so the caller must stop writing.
func renewLease(ctx context.Context, s store.Store, name, holder string, ttl time.Duration) error {
	ok, err := s.AcquireLease(ctx, name, holder, ttl)
	if err != nil {
		return fmt.Errorf("%w: renew lease: %w", ErrPersistence, err)
	}
	if !ok {
		return fmt.Errorf("%w: lease %s lost", ErrSyncInProgress, name)
	}
	return nil
}

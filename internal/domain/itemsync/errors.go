package itemsync

import (
	"context"
	"errors"
	"fmt"

	"budgetmint/internal/infrastructure/plaid"
)

// Error taxonomy. Every error returned by this package wraps exactly one of these.
var (
	ErrValidation        = errors.New("invalid request")
	ErrNotFound          = errors.New("item not found")
	ErrPermission        = errors.New("item not owned by user")
	ErrUpstreamAuth      = errors.New("upstream authorization failed")
	ErrUpstreamTransient = errors.New("upstream temporarily unavailable")
	ErrUpstreamRejected  = errors.New("upstream rejected request")
	ErrPersistence       = errors.New("store operation failed")
	ErrSyncInProgress    = errors.New("sync already in progress for item")
)

// SyncError carries enough context for a caller to decide between retry and abort.
type SyncError struct {
	Op           string
	ItemID       string
	Page         int
	OpsCommitted int
	Partial      SyncResult
	Err          error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s item %s failed at page %d after %d committed ops: %v",
		e.Op, e.ItemID, e.Page, e.OpsCommitted, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsRetryable reports whether repeating the whole call may succeed. All writes
// are idempotent, so persistence failures are safe to retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamTransient) ||
		errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrSyncInProgress)
}

// classifyFeedError maps a feed client error into the taxonomy.
func classifyFeedError(err error) error {
	if apiErr, ok := plaid.AsAPIError(err); ok {
		switch {
		case apiErr.IsAuth():
			return fmt.Errorf("%w: %w", ErrUpstreamAuth, err)
		case apiErr.IsTransient():
			return fmt.Errorf("%w: %w", ErrUpstreamTransient, err)
		default:
			return fmt.Errorf("%w: %w", ErrUpstreamRejected, err)
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	// Network failures, timeouts and unreadable bodies.
	return fmt.Errorf("%w: %w", ErrUpstreamTransient, err)
}

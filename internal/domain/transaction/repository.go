package transaction

import "context"

// Repository defines the interface for transaction data access
type Repository interface {
	// GetByID returns ErrTransactionNotFound when the transaction does not exist
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// ListByUserID lists a user's transactions; a non-empty accountID narrows to one account
	ListByUserID(ctx context.Context, userID, accountID string) ([]*Transaction, error)

	// UpdateOverlay writes only the overlay fields of the patch
	UpdateOverlay(ctx context.Context, id string, patch OverlayPatch) error
}

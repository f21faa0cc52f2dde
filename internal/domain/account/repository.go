package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByUserID retrieves all accounts for a specific user
	ListByUserID(ctx context.Context, userID string) ([]*Account, error)

	// ListByItemID retrieves all accounts linked through one item
	ListByItemID(ctx context.Context, itemID string) ([]*Account, error)
}

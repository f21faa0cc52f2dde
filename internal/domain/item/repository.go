package item

import (
	"context"
	"time"
)

// Repository defines the interface for linked item data access
type Repository interface {
	// Get returns ErrItemNotFound when the item does not exist
	Get(ctx context.Context, itemID string) (*LinkedItem, error)

	// Save writes the full item, replacing any previous record
	Save(ctx context.Context, item *LinkedItem) error

	// SaveCursor advances the cursor. A non-nil syncedAt is written in the same update.
	SaveCursor(ctx context.Context, itemID, cursor string, syncedAt *time.Time) error

	ListByUserID(ctx context.Context, userID string) ([]*LinkedItem, error)
	ListAll(ctx context.Context) ([]*LinkedItem, error)
}

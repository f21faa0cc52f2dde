package itemsync

import (
	"context"
	"errors"
	"fmt"

	"budgetmint/internal/domain/item"
)

// loadOwnedItem reads the item and checks userID owns it.
func loadOwnedItem(ctx context.Context, items item.Repository, userID, itemID string) (*item.LinkedItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	if itemID == "" {
		return nil, fmt.Errorf("%w: item ID is required", ErrValidation)
	}

	it, err := items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, item.ErrItemNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("%w: load item: %w", ErrPersistence, err)
	}
	if !it.OwnedBy(userID) {
		return nil, ErrPermission
	}
	return it, nil
}

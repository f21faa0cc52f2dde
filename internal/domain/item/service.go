package item

import (
	"context"
	"fmt"
)

// Service contains the read-side business logic for linked items
type Service struct {
	repo Repository
}

// NewService creates a new item service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetOwned loads an item and verifies userID owns it
func (s *Service) GetOwned(ctx context.Context, userID, itemID string) (*LinkedItem, error) {
	if userID == "" || itemID == "" {
		return nil, fmt.Errorf("%w: user ID and item ID are required", ErrInvalidInput)
	}

	item, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return item, nil
}

// ListItems returns every item linked by userID
func (s *Service) ListItems(ctx context.Context, userID string) ([]*LinkedItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}
	return s.repo.ListByUserID(ctx, userID)
}

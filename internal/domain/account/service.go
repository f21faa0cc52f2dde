package account

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Service contains the read-side business logic for accounts
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAccount retrieves an account by ID and verifies user ownership
func (s *Service) GetAccount(ctx context.Context, accountID, userID string) (*Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.UserID != userID {
		return nil, ErrForbidden
	}

	return account, nil
}

// ListAccountsByUserID retrieves all accounts for a specific user
func (s *Service) ListAccountsByUserID(ctx context.Context, userID string) ([]*Account, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}

	return s.repo.ListByUserID(ctx, userID)
}

// NetWorth totals the user's balances, subtracting credit and loan accounts
func (s *Service) NetWorth(ctx context.Context, userID string) (decimal.Decimal, error) {
	accounts, err := s.ListAccountsByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return NetWorth(accounts), nil
}

package transaction

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Service contains the user-facing business logic for transactions
type Service struct {
	repo Repository
}

// NewService creates a new transaction service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary is the dashboard view over a user's transactions
type Summary struct {
	NetCashFlow        decimal.Decimal            `json:"netCashFlow"`
	SpendingByCategory map[string]decimal.Decimal `json:"spendingByCategory"`
	Count              int                        `json:"count"`
}

// ListTransactions returns the user's transactions, newest first
func (s *Service) ListTransactions(ctx context.Context, userID, accountID string) ([]*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}

	txns, err := s.repo.ListByUserID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(txns, func(i, j int) bool {
		if txns[i].Date != txns[j].Date {
			return txns[i].Date.After(txns[j].Date)
		}
		return txns[i].TransactionID < txns[j].TransactionID
	})
	return txns, nil
}

// Summarize computes cash flow and category spending for the user
func (s *Service) Summarize(ctx context.Context, userID string) (*Summary, error) {
	txns, err := s.ListTransactions(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	return &Summary{
		NetCashFlow:        NetCashFlow(txns),
		SpendingByCategory: SpendingByCategory(txns),
		Count:              len(txns),
	}, nil
}

// UpdateOverlay applies a user edit to the overlay fields after checking ownership
func (s *Service) UpdateOverlay(ctx context.Context, userID, transactionID string, patch OverlayPatch) (*Transaction, error) {
	if userID == "" || transactionID == "" {
		return nil, fmt.Errorf("%w: user ID and transaction ID are required", ErrInvalidInput)
	}
	if err := patch.Normalize(); err != nil {
		return nil, err
	}

	txn, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdateOverlay(ctx, transactionID, patch); err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}

	if patch.UserCategory != nil {
		if *patch.UserCategory == "" {
			txn.UserCategory = nil
		} else {
			txn.UserCategory = patch.UserCategory
		}
	}
	if patch.Tags != nil {
		txn.Tags = *patch.Tags
	}
	if patch.Notes != nil {
		txn.Notes = *patch.Notes
	}
	return txn, nil
}

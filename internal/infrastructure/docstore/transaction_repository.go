package docstore

import (
	"context"
	"errors"
	"fmt"

	"budgetmint/internal/domain/transaction"
	"budgetmint/internal/infrastructure/store"
)

type TransactionRepository struct {
	store store.Store
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func NewTransactionRepository(s store.Store) *TransactionRepository {
	return &TransactionRepository{store: s}
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	doc, err := r.store.Get(ctx, transaction.Collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction.FromDocument(doc)
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID, accountID string) ([]*transaction.Transaction, error) {
	filters := []store.Filter{store.Where(transaction.FieldUserID, userID)}
	if accountID != "" {
		filters = append(filters, store.Where(transaction.FieldAccountID, accountID))
	}

	docs, err := r.store.Query(ctx, transaction.Collection, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	txns := make([]*transaction.Transaction, 0, len(docs))
	for _, doc := range docs {
		t, err := transaction.FromDocument(doc)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func (r *TransactionRepository) UpdateOverlay(ctx context.Context, id string, patch transaction.OverlayPatch) error {
	if err := r.store.Update(ctx, transaction.Collection, id, patch.Fields()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return transaction.ErrTransactionNotFound
		}
		return err
	}
	return nil
}

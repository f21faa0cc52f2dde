package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"budgetmint/internal/domain/account"
	"budgetmint/internal/infrastructure/store"
)

type AccountRepository struct {
	store store.Store
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(s store.Store) *AccountRepository {
	return &AccountRepository{store: s}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	doc, err := r.store.Get(ctx, account.Collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account.FromDocument(doc)
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	return r.list(ctx, store.Where(account.FieldUserID, userID))
}

func (r *AccountRepository) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	return r.list(ctx, store.Where(account.FieldItemID, itemID))
}

func (r *AccountRepository) list(ctx context.Context, filters ...store.Filter) ([]*account.Account, error) {
	docs, err := r.store.Query(ctx, account.Collection, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*account.Account, 0, len(docs))
	for _, doc := range docs {
		a, err := account.FromDocument(doc)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name != accounts[j].Name {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})
	return accounts, nil
}

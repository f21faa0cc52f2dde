// Package docstore implements the domain repositories over store.Store.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/infrastructure/store"
)

// Cipher seals access tokens at rest.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// ItemRepository stores linked items with their access tokens encrypted
type ItemRepository struct {
	store  store.Store
	cipher Cipher
}

var _ item.Repository = (*ItemRepository)(nil)

func NewItemRepository(s store.Store, cipher Cipher) *ItemRepository {
	return &ItemRepository{store: s, cipher: cipher}
}

func (r *ItemRepository) Get(ctx context.Context, itemID string) (*item.LinkedItem, error) {
	doc, err := r.store.Get(ctx, item.Collection, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, item.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return r.decode(doc)
}

func (r *ItemRepository) Save(ctx context.Context, it *item.LinkedItem) error {
	sealed, err := r.cipher.Encrypt(it.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	if err := r.store.Set(ctx, item.Collection, it.ItemID, it.Fields(sealed)); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func (r *ItemRepository) SaveCursor(ctx context.Context, itemID, cursor string, syncedAt *time.Time) error {
	fields := store.Fields{item.FieldCursor: cursor}
	if syncedAt != nil {
		fields[item.FieldLastSyncedAt] = *syncedAt
	}
	if err := r.store.Update(ctx, item.Collection, itemID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return item.ErrItemNotFound
		}
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

func (r *ItemRepository) ListByUserID(ctx context.Context, userID string) ([]*item.LinkedItem, error) {
	return r.list(ctx, store.Where(item.FieldUserID, userID))
}

func (r *ItemRepository) ListAll(ctx context.Context) ([]*item.LinkedItem, error) {
	return r.list(ctx)
}

func (r *ItemRepository) list(ctx context.Context, filters ...store.Filter) ([]*item.LinkedItem, error) {
	docs, err := r.store.Query(ctx, item.Collection, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*item.LinkedItem, 0, len(docs))
	for _, doc := range docs {
		it, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items, nil
}

func (r *ItemRepository) decode(doc *store.Document) (*item.LinkedItem, error) {
	it, sealed, err := item.FromDocument(doc)
	if err != nil {
		return nil, err
	}
	it.AccessToken, err = r.cipher.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token for item %s: %w", doc.ID, err)
	}
	return it, nil
}

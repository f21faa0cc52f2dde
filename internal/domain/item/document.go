package item

import (
	"fmt"

	"budgetmint/internal/infrastructure/store"
)

// Stored field names.
const (
	FieldItemID        = "itemId"
	FieldUserID        = "userId"
	FieldAccessToken   = "accessToken"
	FieldCursor        = "transactionsCursor"
	FieldLastSyncedAt  = "lastSyncedAt"
	FieldInstitutionID = "institutionId"
	FieldCreatedAt     = "createdAt"
)

// Fields is the stored form. sealedToken is the encrypted access token.
func (i *LinkedItem) Fields(sealedToken string) store.Fields {
	return store.Fields{
		FieldItemID:        i.ItemID,
		FieldUserID:        i.UserID,
		FieldAccessToken:   sealedToken,
		FieldCursor:        store.StringPtrValue(i.Cursor),
		FieldLastSyncedAt:  store.TimePtrValue(i.LastSyncedAt),
		FieldInstitutionID: store.StringPtrValue(i.InstitutionID),
		FieldCreatedAt:     i.CreatedAt,
	}
}

// FromDocument decodes a stored item. The access token is left sealed.
func FromDocument(doc *store.Document) (*LinkedItem, string, error) {
	f := doc.Fields
	synced, err := f.Time(FieldLastSyncedAt)
	if err != nil {
		return nil, "", fmt.Errorf("item %s: %w", doc.ID, err)
	}
	created, err := f.Time(FieldCreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("item %s: %w", doc.ID, err)
	}

	item := &LinkedItem{
		ItemID:        doc.ID,
		UserID:        f.String(FieldUserID),
		Cursor:        f.StringPtr(FieldCursor),
		LastSyncedAt:  synced,
		InstitutionID: f.StringPtr(FieldInstitutionID),
	}
	if created != nil {
		item.CreatedAt = *created
	}
	return item, f.String(FieldAccessToken), nil
}

package item

import (
	"errors"
	"time"
)

// Collection is the store collection holding linked items, keyed by itemId.
const Collection = "plaid_items"

var (
	ErrItemNotFound = errors.New("item not found")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// LinkedItem is one granted credential to an institution connection.
// AccessToken never leaves the service.
type LinkedItem struct {
	ItemID        string     `json:"itemId"`
	UserID        string     `json:"userId"`
	AccessToken   string     `json:"-"`
	Cursor        *string    `json:"transactionsCursor"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt"`
	InstitutionID *string    `json:"institutionId"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CursorValue returns the cursor, or "" when the item has never been synced.
func (i *LinkedItem) CursorValue() string {
	if i.Cursor == nil {
		return ""
	}
	return *i.Cursor
}

// OwnedBy reports whether userID owns the item.
func (i *LinkedItem) OwnedBy(userID string) bool {
	return userID != "" && i.UserID == userID
}

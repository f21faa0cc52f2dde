package notification

import (
	"errors"
	"fmt"
	"time"
)

// Store collections
const (
	Collection            = "notifications"
	PreferencesCollection = "notification_preferences"
)

// Notification categories
const (
	CategoryAccounts     = "accounts"
	CategoryGeneral      = "general"
	CategoryTransactions = "transactions"
)

var validCategories = map[string]struct{}{
	CategoryAccounts:     {},
	CategoryGeneral:      {},
	CategoryTransactions: {},
}

// Domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPreferencesNotFound  = errors.New("notification preferences not found")
	ErrInvalidCategory      = errors.New("invalid notification category")
	ErrInvalidInput         = errors.New("invalid input")
)

// Preferences stores per-category notification toggles for a user
type Preferences struct {
	UserID              string    `json:"-"`
	AccountsEnabled     bool      `json:"accounts_enabled"`
	GeneralEnabled      bool      `json:"general_enabled"`
	TransactionsEnabled bool      `json:"transactions_enabled"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// DefaultPreferences enables every category.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:              userID,
		AccountsEnabled:     true,
		GeneralEnabled:      true,
		TransactionsEnabled: true,
	}
}

// Notification represents a stored notification record
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"-"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	Data      map[string]string `json:"data"`
	OpenedAt  *time.Time        `json:"opened_at"`
	CreatedAt time.Time         `json:"created_at"`
}

// UpdatePreferenceParams contains fields for updating notification preferences
type UpdatePreferenceParams struct {
	AccountsEnabled     *bool
	GeneralEnabled      *bool
	TransactionsEnabled *bool
}

// Apply sets the non-nil toggles.
func (p *Preferences) Apply(params UpdatePreferenceParams) {
	if params.AccountsEnabled != nil {
		p.AccountsEnabled = *params.AccountsEnabled
	}
	if params.GeneralEnabled != nil {
		p.GeneralEnabled = *params.GeneralEnabled
	}
	if params.TransactionsEnabled != nil {
		p.TransactionsEnabled = *params.TransactionsEnabled
	}
}

// CreateNotificationParams contains parameters for storing a notification
type CreateNotificationParams struct {
	UserID   string
	Title    string
	Message  string
	Category string
	Data     map[string]string
}

func (p CreateNotificationParams) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}
	if p.Title == "" {
		return fmt.Errorf("%w: notification title is required", ErrInvalidInput)
	}
	if p.Message == "" {
		return fmt.Errorf("%w: notification message is required", ErrInvalidInput)
	}
	if !IsValidCategory(p.Category) {
		return ErrInvalidCategory
	}
	return nil
}

func IsValidCategory(c string) bool {
	_, ok := validCategories[c]
	return ok
}

// IsCategoryEnabled checks if a specific category is enabled in preferences
func (p *Preferences) IsCategoryEnabled(category string) bool {
	switch category {
	case CategoryAccounts:
		return p.AccountsEnabled
	case CategoryGeneral:
		return p.GeneralEnabled
	case CategoryTransactions:
		return p.TransactionsEnabled
	default:
		return false
	}
}

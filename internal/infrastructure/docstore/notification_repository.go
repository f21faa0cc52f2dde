package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"budgetmint/internal/domain/notification"
	"budgetmint/internal/infrastructure/store"
)

// Stored notification field names.
const (
	fieldUserID    = "userId"
	fieldTitle     = "title"
	fieldMessage   = "message"
	fieldCategory  = "category"
	fieldData      = "data"
	fieldOpenedAt  = "openedAt"
	fieldCreatedAt = "createdAt"

	fieldAccountsEnabled     = "accountsEnabled"
	fieldGeneralEnabled      = "generalEnabled"
	fieldTransactionsEnabled = "transactionsEnabled"
	fieldUpdatedAt           = "updatedAt"
)

// NotificationRepository keeps notification records and per-user preferences.
// Preferences are keyed by user ID.
type NotificationRepository struct {
	store store.Store
}

var _ notification.Repository = (*NotificationRepository)(nil)

func NewNotificationRepository(s store.Store) *NotificationRepository {
	return &NotificationRepository{store: s}
}

func (r *NotificationRepository) GetPreferences(ctx context.Context, userID string) (*notification.Preferences, error) {
	doc, err := r.store.Get(ctx, notification.PreferencesCollection, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notification.ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}

	f := doc.Fields
	updatedAt, err := f.Time(fieldUpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("preferences %s: %w", userID, err)
	}
	prefs := &notification.Preferences{
		UserID:              userID,
		AccountsEnabled:     f.Bool(fieldAccountsEnabled),
		GeneralEnabled:      f.Bool(fieldGeneralEnabled),
		TransactionsEnabled: f.Bool(fieldTransactionsEnabled),
	}
	if updatedAt != nil {
		prefs.UpdatedAt = *updatedAt
	}
	return prefs, nil
}

func (r *NotificationRepository) SavePreferences(ctx context.Context, prefs *notification.Preferences) error {
	err := r.store.Set(ctx, notification.PreferencesCollection, prefs.UserID, store.Fields{
		fieldAccountsEnabled:     prefs.AccountsEnabled,
		fieldGeneralEnabled:      prefs.GeneralEnabled,
		fieldTransactionsEnabled: prefs.TransactionsEnabled,
		fieldUpdatedAt:           prefs.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save notification preferences: %w", err)
	}
	return nil
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *notification.Notification) error {
	data := make(map[string]any, len(n.Data))
	for k, v := range n.Data {
		data[k] = v
	}
	err := r.store.Set(ctx, notification.Collection, n.ID, store.Fields{
		fieldUserID:    n.UserID,
		fieldTitle:     n.Title,
		fieldMessage:   n.Message,
		fieldCategory:  n.Category,
		fieldData:      data,
		fieldOpenedAt:  store.TimePtrValue(n.OpenedAt),
		fieldCreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*notification.Notification, int, error) {
	docs, err := r.store.Query(ctx, notification.Collection, store.Where(fieldUserID, userID))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	all := make([]*notification.Notification, 0, len(docs))
	for _, doc := range docs {
		n, err := decodeNotification(doc)
		if err != nil {
			return nil, 0, err
		}
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	start := (page - 1) * perPage
	if start >= len(all) {
		return []*notification.Notification{}, len(all), nil
	}
	end := min(start+perPage, len(all))
	return all[start:end], len(all), nil
}

func (r *NotificationRepository) MarkOpened(ctx context.Context, notificationID, userID string, at time.Time) error {
	doc, err := r.store.Get(ctx, notification.Collection, notificationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notification.ErrNotificationNotFound
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	// Someone else's notification is reported as missing.
	if doc.Fields.String(fieldUserID) != userID {
		return notification.ErrNotificationNotFound
	}

	if err := r.store.Update(ctx, notification.Collection, notificationID, store.Fields{fieldOpenedAt: at}); err != nil {
		return fmt.Errorf("failed to mark notification opened: %w", err)
	}
	return nil
}

func decodeNotification(doc *store.Document) (*notification.Notification, error) {
	f := doc.Fields
	openedAt, err := f.Time(fieldOpenedAt)
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", doc.ID, err)
	}
	createdAt, err := f.Time(fieldCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", doc.ID, err)
	}

	n := &notification.Notification{
		ID:       doc.ID,
		UserID:   f.String(fieldUserID),
		Title:    f.String(fieldTitle),
		Message:  f.String(fieldMessage),
		Category: f.String(fieldCategory),
		Data:     stringMap(f[fieldData]),
		OpenedAt: openedAt,
	}
	if createdAt != nil {
		n.CreatedAt = *createdAt
	}
	return n, nil
}

// stringMap accepts the map shapes the backends decode nested objects into.
func stringMap(v any) map[string]string {
	out := map[string]string{}
	switch m := v.(type) {
	case map[string]string:
		for k, s := range m {
			out[k] = s
		}
	case map[string]any:
		for k, raw := range m {
			if s, ok := raw.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

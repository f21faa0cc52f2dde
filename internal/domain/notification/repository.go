package notification

import (
	"context"
	"time"
)

// Repository defines the interface for notification data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// Notification preferences. GetPreferences returns ErrPreferencesNotFound when none are stored.
	GetPreferences(ctx context.Context, userID string) (*Preferences, error)
	SavePreferences(ctx context.Context, prefs *Preferences) error

	// Notifications
	CreateNotification(ctx context.Context, n *Notification) error
	// ListByUserID returns one page, newest first, and the total count.
	ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*Notification, int, error)
	// MarkOpened returns ErrNotificationNotFound unless the notification exists and belongs to userID.
	MarkOpened(ctx context.Context, notificationID, userID string, at time.Time) error
}

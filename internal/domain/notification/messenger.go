package notification

import "context"

// Messenger defines the interface for sending push notifications.
// Implemented by the Firebase FCM client in the infrastructure layer.
type Messenger interface {
	SendToUser(ctx context.Context, userID, title, body string, data map[string]string) error
}

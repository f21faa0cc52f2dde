package firebase

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// App wraps an initialized Firebase app and the clients built from it.
type App struct {
	app    *firebase.App
	logger logrus.FieldLogger
}

// NewApp initializes a Firebase app. credentialsFile may be empty to use
// application default credentials.
func NewApp(ctx context.Context, projectID, credentialsFile string, logger logrus.FieldLogger) (*App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return &App{app: app, logger: logger}, nil
}

// Firestore returns a Firestore client. The caller must Close it.
func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := a.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}
	return client, nil
}

// Messenger returns an FCM-backed notification.Messenger.
func (a *App) Messenger(ctx context.Context) (*Messenger, error) {
	msgClient, err := a.app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}
	return &Messenger{msgClient: msgClient, logger: a.logger}, nil
}

// Messenger sends push notifications to per-user FCM topics.
// Clients subscribe to UserTopic(uid) after sign-in.
type Messenger struct {
	msgClient *messaging.Client
	logger    logrus.FieldLogger
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID string) string {
	// FCM topic names allow [a-zA-Z0-9-_.~%]
	return "user_" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '~':
			return r
		default:
			return '_'
		}
	}, userID)
}

// SendToUser sends a notification; an empty title and body sends a data-only message.
func (m *Messenger) SendToUser(ctx context.Context, userID, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Topic: UserTopic(userID),
		Data:  data,
	}
	if title != "" || body != "" {
		msg.Notification = &messaging.Notification{Title: title, Body: body}
	}

	id, err := m.msgClient.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	m.logger.WithFields(logrus.Fields{"user_id": userID, "message_id": id}).Debug("FCM message sent")
	return nil
}

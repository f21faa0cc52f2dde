package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"budgetmint/internal/shared/messages"
)

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
	messages  *messages.Messages
	logger    logrus.FieldLogger
	now       func() time.Time
	newID     func() string
}

// NewService creates a new notification service. messenger may be nil, in which
// case notifications are only stored.
func NewService(repo Repository, messenger Messenger, msgs *messages.Messages, logger logrus.FieldLogger) *Service {
	if msgs == nil {
		msgs = messages.Default()
	}
	return &Service{
		repo:      repo,
		messenger: messenger,
		messages:  msgs,
		logger:    logger.WithField("component", "notification"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// GetPreferences returns the notification preferences for a user.
// Returns default (all-enabled) preferences if none have been created yet.
func (s *Service) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}

	prefs, err := s.repo.GetPreferences(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		return DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// UpdatePreferences updates notification preferences for a user
func (s *Service) UpdatePreferences(ctx context.Context, userID string, params UpdatePreferenceParams) (*Preferences, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs.Apply(params)
	prefs.UpdatedAt = s.now().UTC()
	if err := s.repo.SavePreferences(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// ListNotifications returns paginated notifications for a user
func (s *Service) ListNotifications(ctx context.Context, userID string, page, perPage int) ([]*Notification, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return s.repo.ListByUserID(ctx, userID, page, perPage)
}

// MarkNotificationOpened marks a notification as opened by the authenticated user
func (s *Service) MarkNotificationOpened(ctx context.Context, notificationID, userID string) error {
	if notificationID == "" {
		return fmt.Errorf("%w: notification ID is required", ErrInvalidInput)
	}
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}

	return s.repo.MarkOpened(ctx, notificationID, userID, s.now().UTC())
}

// SendToUser pushes a notification to a user's devices and stores a record.
// Disabled categories are skipped silently. Push failures are logged, not returned.
func (s *Service) SendToUser(ctx context.Context, params CreateNotificationParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	log := s.logger.WithFields(logrus.Fields{"user_id": params.UserID, "category": params.Category})

	prefs, err := s.GetPreferences(ctx, params.UserID)
	if err != nil {
		return err
	}
	if !prefs.IsCategoryEnabled(params.Category) {
		log.Debug("Notification skipped: category disabled")
		return nil
	}

	data := make(map[string]string, len(params.Data)+1)
	for k, v := range params.Data {
		data[k] = v
	}
	if _, ok := data["route"]; !ok {
		data["route"] = params.Category
	}

	if s.messenger != nil {
		if err := s.messenger.SendToUser(ctx, params.UserID, params.Title, params.Message, data); err != nil {
			log.WithError(err).Warn("Failed to send push notification")
		}
	}

	n := &Notification{
		ID:        s.newID(),
		UserID:    params.UserID,
		Title:     params.Title,
		Message:   params.Message,
		Category:  params.Category,
		Data:      data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		log.WithError(err).Error("Failed to store notification")
	}
	return nil
}

// NotifySyncComplete tells the user new transactions were imported. Nothing is
// sent when the sync added nothing.
func (s *Service) NotifySyncComplete(ctx context.Context, userID, itemID string, added int) error {
	if added <= 0 {
		return nil
	}
	text := s.messages.SyncComplete.Render(map[string]string{"count": strconv.Itoa(added)})
	return s.SendToUser(ctx, CreateNotificationParams{
		UserID:   userID,
		Title:    text.Title,
		Message:  text.Body,
		Category: CategoryTransactions,
		Data:     map[string]string{"itemId": itemID, "added": strconv.Itoa(added)},
	})
}

// NotifyRelinkRequired tells the user an item's credentials stopped working.
func (s *Service) NotifyRelinkRequired(ctx context.Context, userID, itemID string) error {
	text := s.messages.RelinkRequired
	return s.SendToUser(ctx, CreateNotificationParams{
		UserID:   userID,
		Title:    text.Title,
		Message:  text.Body,
		Category: CategoryAccounts,
		Data:     map[string]string{"itemId": itemID, "action": "relink"},
	})
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetmint/internal/domain/notification"
	"budgetmint/internal/infrastructure/docstore"
	"budgetmint/internal/infrastructure/store"
	"budgetmint/internal/shared/messages"
)

func newNotificationHandler(t *testing.T) (*NotificationHandler, *notification.Service) {
	t.Helper()
	repo := docstore.NewNotificationRepository(store.NewMemoryStore(0))
	svc := notification.NewService(repo, nil, messages.Default(), quietLogger())
	return NewNotificationHandler(svc, quietLogger()), svc
}

func TestHandleNotifications_ListsOwnOnly(t *testing.T) {
	h, svc := newNotificationHandler(t)
	ctx := context.Background()
	require.NoError(t, svc.NotifySyncComplete(ctx, "U", "i1", 3))
	require.NoError(t, svc.NotifyRelinkRequired(ctx, "V", "i2"))

	rr := serve("GET /api/notifications", h.HandleNotifications, authedRequest(t, http.MethodGet, "/api/notifications?page=1&per_page=10", "", "U"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp NotificationListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, notification.CategoryTransactions, resp.Notifications[0].Category)
	assert.Equal(t, "i1", resp.Notifications[0].Data["itemId"])
	assert.Nil(t, resp.Notifications[0].OpenedAt)
	assert.Equal(t, PaginationResponse{Page: 1, PerPage: 10, Total: 1, Pages: 1}, resp.Pagination)
}

func TestHandlePreferences_RoundTrip(t *testing.T) {
	h, _ := newNotificationHandler(t)

	rr := serve("GET /api/notifications/preferences", h.HandleGetPreferences,
		authedRequest(t, http.MethodGet, "/api/notifications/preferences", "", "U"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"general_enabled":true,"accounts_enabled":true,"transactions_enabled":true}}`, rr.Body.String())

	rr = serve("POST /api/notifications/preferences", h.HandleUpdatePreferences,
		authedRequest(t, http.MethodPost, "/api/notifications/preferences", `{"transactions_enabled":false}`, "U"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve("GET /api/notifications/preferences", h.HandleGetPreferences,
		authedRequest(t, http.MethodGet, "/api/notifications/preferences", "", "U"))
	assert.JSONEq(t, `{"success":true,"data":{"general_enabled":true,"accounts_enabled":true,"transactions_enabled":false}}`, rr.Body.String())
}

func TestHandleOpen(t *testing.T) {
	h, svc := newNotificationHandler(t)
	ctx := context.Background()
	require.NoError(t, svc.NotifyRelinkRequired(ctx, "U", "i1"))

	list, _, err := svc.ListNotifications(ctx, "U", 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	tests := []struct {
		name       string
		body       string
		userID     string
		wantStatus int
	}{
		{"missing id", `{}`, "U", http.StatusBadRequest},
		{"other user", `{"notification_id":"` + id + `"}`, "V", http.StatusNotFound},
		{"unknown", `{"notification_id":"nope"}`, "U", http.StatusNotFound},
		{"owner", `{"notification_id":"` + id + `"}`, "U", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve("POST /api/notifications/open", h.HandleOpen,
				authedRequest(t, http.MethodPost, "/api/notifications/open", tt.body, tt.userID))
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}

	list, _, err = svc.ListNotifications(ctx, "U", 1, 20)
	require.NoError(t, err)
	assert.NotNil(t, list[0].OpenedAt)
}

func TestHandleNotifications_Unauthenticated(t *testing.T) {
	h, _ := newNotificationHandler(t)

	rr := serve("GET /api/notifications", h.HandleNotifications, authedRequest(t, http.MethodGet, "/api/notifications", "", ""))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/notification"
)

type NotificationHandler struct {
	notificationService *notification.Service
	logger              logrus.FieldLogger
}

func NewNotificationHandler(notificationService *notification.Service, logger logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger.WithField("handler", "notifications")}
}

// --- Request/Response types ---

type UpdatePreferencesRequest struct {
	GeneralEnabled      *bool `json:"general_enabled"`
	AccountsEnabled     *bool `json:"accounts_enabled"`
	TransactionsEnabled *bool `json:"transactions_enabled"`
}

type PreferencesResponse struct {
	Success bool                     `json:"success"`
	Data    *PreferencesDataResponse `json:"data"`
}

type PreferencesDataResponse struct {
	GeneralEnabled      bool `json:"general_enabled"`
	AccountsEnabled     bool `json:"accounts_enabled"`
	TransactionsEnabled bool `json:"transactions_enabled"`
}

type NotificationResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	OpenedAt  *string           `json:"opened_at"`
	CreatedAt string            `json:"created_at"`
	Data      map[string]string `json:"data"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Pagination    PaginationResponse     `json:"pagination"`
}

type PaginationResponse struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

type OpenNotificationRequest struct {
	NotificationID string `json:"notification_id"`
}

// --- Handlers ---

// HandleNotifications handles GET /api/notifications
func (h *NotificationHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	notifications, total, err := h.notificationService.ListNotifications(r.Context(), userID, page, perPage)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, toNotificationResponse(n))
	}

	pages := 0
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}

	writeJSON(w, http.StatusOK, NotificationListResponse{
		Notifications: items,
		Pagination: PaginationResponse{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
		},
	})
}

// HandleGetPreferences handles GET /api/notifications/preferences
func (h *NotificationHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	prefs, err := h.notificationService.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesResponse(prefs))
}

// HandleUpdatePreferences handles POST /api/notifications/preferences
func (h *NotificationHandler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdatePreferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	prefs, err := h.notificationService.UpdatePreferences(r.Context(), userID, notification.UpdatePreferenceParams{
		GeneralEnabled:      req.GeneralEnabled,
		AccountsEnabled:     req.AccountsEnabled,
		TransactionsEnabled: req.TransactionsEnabled,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesResponse(prefs))
}

// HandleOpen handles POST /api/notifications/open
func (h *NotificationHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req OpenNotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NotificationID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "notification_id is required")
		return
	}

	if err := h.notificationService.MarkNotificationOpened(r.Context(), req.NotificationID, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Helpers ---

func toPreferencesResponse(p *notification.Preferences) PreferencesResponse {
	return PreferencesResponse{
		Success: true,
		Data: &PreferencesDataResponse{
			GeneralEnabled:      p.GeneralEnabled,
			AccountsEnabled:     p.AccountsEnabled,
			TransactionsEnabled: p.TransactionsEnabled,
		},
	}
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	var openedAt *string
	if n.OpenedAt != nil {
		formatted := n.OpenedAt.Format(time.RFC3339)
		openedAt = &formatted
	}

	data := n.Data
	if data == nil {
		data = make(map[string]string)
	}

	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Category:  n.Category,
		OpenedAt:  openedAt,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		Data:      data,
	}
}

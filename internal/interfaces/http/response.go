package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/account"
	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/itemsync"
	"budgetmint/internal/domain/notification"
	"budgetmint/internal/domain/transaction"
	"budgetmint/internal/shared/middleware"
)

const maxBodySize = 1 << 20 // 1 MiB

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusRule maps a family of domain errors to one response.
type statusRule struct {
	status  int
	code    string
	message string
	errs    []error
}

var statusRules = []statusRule{
	{http.StatusBadRequest, "invalid_request", "", []error{
		itemsync.ErrValidation, item.ErrInvalidInput, account.ErrInvalidInput,
		transaction.ErrInvalidInput, notification.ErrInvalidInput, notification.ErrInvalidCategory,
	}},
	{http.StatusForbidden, "forbidden", "Access forbidden", []error{
		itemsync.ErrPermission, item.ErrForbidden, account.ErrForbidden, transaction.ErrForbidden,
	}},
	{http.StatusNotFound, "not_found", "Not found", []error{
		itemsync.ErrNotFound, item.ErrItemNotFound, account.ErrAccountNotFound,
		transaction.ErrTransactionNotFound, notification.ErrNotificationNotFound,
	}},
	{http.StatusConflict, "sync_in_progress", "A sync is already running for this item", []error{itemsync.ErrSyncInProgress}},
	{http.StatusFailedDependency, "relink_required", "The institution connection must be re-linked", []error{itemsync.ErrUpstreamAuth}},
	{http.StatusServiceUnavailable, "upstream_unavailable", "The institution is temporarily unavailable", []error{itemsync.ErrUpstreamTransient}},
	{http.StatusBadGateway, "upstream_rejected", "The institution rejected the request", []error{itemsync.ErrUpstreamRejected}},
}

// classifyError returns the HTTP status, stable error code and client message for err.
// Validation errors echo their detail; everything else uses a fixed message.
func classifyError(err error) (int, string, string) {
	for _, rule := range statusRules {
		for _, target := range rule.errs {
			if errors.Is(err, target) {
				msg := rule.message
				if msg == "" {
					msg = err.Error()
				}
				return rule.status, rule.code, msg
			}
		}
	}
	return http.StatusInternalServerError, "internal", "Internal server error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	status, code, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("status", status).Error("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

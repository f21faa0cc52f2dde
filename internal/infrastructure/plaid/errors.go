package plaid

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes the sync layer branches on.
const (
	CodeMutationDuringPagination = "TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION"
	CodeItemLoginRequired        = "ITEM_LOGIN_REQUIRED"
	CodeInvalidAccessToken       = "INVALID_ACCESS_TOKEN"
	CodeInvalidPublicToken       = "INVALID_PUBLIC_TOKEN"
	CodeItemNotFound             = "ITEM_NOT_FOUND"
	CodeAccessNotGranted         = "ACCESS_NOT_GRANTED"
)

// APIError is the error body Plaid returns with any non-200 response
type APIError struct {
	StatusCode     int    `json:"-"`
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	Message        string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid error (status %d): %s/%s - %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.Message)
}

// IsAuth reports whether the token or item credentials are no longer usable. Re-linking fixes these.
func (e *APIError) IsAuth() bool {
	switch e.ErrorCode {
	case CodeItemLoginRequired, CodeInvalidAccessToken, CodeInvalidPublicToken, CodeItemNotFound, CodeAccessNotGranted:
		return true
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsTransient reports whether the same request may succeed later.
func (e *APIError) IsTransient() bool {
	switch e.ErrorType {
	case "RATE_LIMIT_EXCEEDED", "API_ERROR", "INSTITUTION_ERROR":
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsPaginationMutation reports that the item changed mid-pagination and the
// loop must restart from its first cursor.
func (e *APIError) IsPaginationMutation() bool {
	return e.ErrorCode == CodeMutationDuringPagination
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

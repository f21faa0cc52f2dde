package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/item"
)

// Linker is implemented by *itemsync.LinkManager.
type Linker interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	EstablishLink(ctx context.Context, userID, publicToken string) (*item.LinkedItem, error)
}

type PlaidHandler struct {
	links  Linker
	logger logrus.FieldLogger
}

func NewPlaidHandler(links Linker, logger logrus.FieldLogger) *PlaidHandler {
	return &PlaidHandler{links: links, logger: logger.WithField("handler", "plaid")}
}

type LinkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type ExchangeRequest struct {
	PublicToken string `json:"publicToken"`
}

type ExchangeResponse struct {
	Success bool   `json:"success"`
	ItemID  string `json:"itemId"`
}

// HandleLinkToken handles POST /api/plaid/link-token
func (h *PlaidHandler) HandleLinkToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	token, err := h.links.CreateLinkToken(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkTokenResponse{LinkToken: token})
}

// HandleExchange handles POST /api/plaid/exchange
func (h *PlaidHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ExchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PublicToken) == "" {
		writeErrorMessage(w, http.StatusBadRequest, "publicToken is required")
		return
	}

	it, err := h.links.EstablishLink(r.Context(), userID, req.PublicToken)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"user_id": userID, "item_id": it.ItemID}).Info("item linked")
	writeJSON(w, http.StatusOK, ExchangeResponse{Success: true, ItemID: it.ItemID})
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/itemsync"
)

// Syncer is implemented by *itemsync.SyncEngine.
type Syncer interface {
	SyncTransactions(ctx context.Context, userID, itemID string) (*itemsync.SyncResult, error)
}

// Refresher is implemented by *itemsync.BalanceRefresher.
type Refresher interface {
	RefreshBalances(ctx context.Context, userID, itemID string) (int, error)
}

type ItemHandler struct {
	items     *item.Service
	syncer    Syncer
	refresher Refresher
	logger    logrus.FieldLogger
}

func NewItemHandler(items *item.Service, syncer Syncer, refresher Refresher, logger logrus.FieldLogger) *ItemHandler {
	return &ItemHandler{
		items:     items,
		syncer:    syncer,
		refresher: refresher,
		logger:    logger.WithField("handler", "items"),
	}
}

type ItemResponse struct {
	ItemID        string  `json:"itemId"`
	InstitutionID *string `json:"institutionId"`
	LastSyncedAt  *string `json:"lastSyncedAt"`
	CreatedAt     string  `json:"createdAt"`
}

type SyncResponse struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped"`
}

type RefreshResponse struct {
	Accounts int `json:"accounts"`
}

// HandleListItems handles GET /api/items
func (h *ItemHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.items.ListItems(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSync handles POST /api/items/{id}/sync
func (h *ItemHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.syncer.SyncTransactions(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		Added:    result.Added,
		Modified: result.Modified,
		Removed:  result.Removed,
		Skipped:  result.Skipped,
	})
}

// HandleRefreshBalances handles POST /api/items/{id}/refresh-balances
func (h *ItemHandler) HandleRefreshBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	n, err := h.refresher.RefreshBalances(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Accounts: n})
}

func toItemResponse(it *item.LinkedItem) ItemResponse {
	var lastSynced *string
	if it.LastSyncedAt != nil {
		s := it.LastSyncedAt.UTC().Format(time.RFC3339)
		lastSynced = &s
	}
	return ItemResponse{
		ItemID:        it.ItemID,
		InstitutionID: it.InstitutionID,
		LastSyncedAt:  lastSynced,
		CreatedAt:     it.CreatedAt.UTC().Format(time.RFC3339),
	}
}

package http

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	webhookTypeTransactions     = "TRANSACTIONS"
	webhookSyncUpdatesAvailable = "SYNC_UPDATES_AVAILABLE"
)

// SyncEnqueuer schedules a background sync for an item.
type SyncEnqueuer interface {
	EnqueueItemSync(ctx context.Context, itemID string) error
}

type WebhookHandler struct {
	syncs  SyncEnqueuer
	logger logrus.FieldLogger
}

func NewWebhookHandler(syncs SyncEnqueuer, logger logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{syncs: syncs, logger: logger.WithField("handler", "plaid_webhook")}
}

type PlaidWebhook struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

// HandlePlaid handles POST /webhooks/plaid. Every well-formed delivery is
// acknowledged so the sender does not retry; sync updates also queue a sync.
func (h *WebhookHandler) HandlePlaid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var hook PlaidWebhook
	if !decodeBody(w, r, &hook) {
		return
	}

	log := h.logger.WithFields(logrus.Fields{
		"webhook_type": hook.WebhookType,
		"webhook_code": hook.WebhookCode,
		"item_id":      hook.ItemID,
	})

	if hook.WebhookType == webhookTypeTransactions && hook.WebhookCode == webhookSyncUpdatesAvailable && hook.ItemID != "" {
		if err := h.syncs.EnqueueItemSync(r.Context(), hook.ItemID); err != nil {
			log.WithError(err).Warn("failed to enqueue item sync")
		} else {
			log.Info("item sync enqueued")
		}
	} else {
		log.Info("webhook received")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	itemIDs []string
	err     error
}

func (r *recordingEnqueuer) EnqueueItemSync(ctx context.Context, itemID string) error {
	r.itemIDs = append(r.itemIDs, itemID)
	return r.err
}

func TestHandlePlaid(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		enqueueErr  error
		wantStatus  int
		wantEnqueue []string
	}{
		{
			name:        "sync updates available",
			body:        `{"webhook_type":"TRANSACTIONS","webhook_code":"SYNC_UPDATES_AVAILABLE","item_id":"i1"}`,
			wantStatus:  http.StatusOK,
			wantEnqueue: []string{"i1"},
		},
		{
			name:       "other code acknowledged",
			body:       `{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"i1"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing item id",
			body:       `{"webhook_type":"TRANSACTIONS","webhook_code":"SYNC_UPDATES_AVAILABLE"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "enqueue failure still acknowledged",
			body:        `{"webhook_type":"TRANSACTIONS","webhook_code":"SYNC_UPDATES_AVAILABLE","item_id":"i2"}`,
			enqueueErr:  errors.New("queue full"),
			wantStatus:  http.StatusOK,
			wantEnqueue: []string{"i2"},
		},
		{
			name:       "malformed body",
			body:       `{"webhook_type":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enq := &recordingEnqueuer{err: tt.enqueueErr}
			h := NewWebhookHandler(enq, quietLogger())

			req := httptest.NewRequest(http.MethodPost, "/webhooks/plaid", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.HandlePlaid(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantEnqueue, enq.itemIDs)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"received":true}`, rr.Body.String())
			}
		})
	}
}

func TestHandlePlaid_MethodNotAllowed(t *testing.T) {
	h := NewWebhookHandler(&recordingEnqueuer{}, quietLogger())

	rr := httptest.NewRecorder()
	h.HandlePlaid(rr, httptest.NewRequest(http.MethodGet, "/webhooks/plaid", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"budgetmint/internal/domain/account"
	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/itemsync"
	"budgetmint/internal/domain/transaction"
	"budgetmint/internal/shared/middleware"
)

// MockAccountRepo implements account.Repository for testing
type MockAccountRepo struct {
	GetByIDFunc      func(ctx context.Context, id string) (*account.Account, error)
	ListByUserIDFunc func(ctx context.Context, userID string) ([]*account.Account, error)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAccountRepo) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	return nil, nil
}

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	GetByIDFunc       func(ctx context.Context, id string) (*transaction.Transaction, error)
	ListByUserIDFunc  func(ctx context.Context, userID, accountID string) ([]*transaction.Transaction, error)
	UpdateOverlayFunc func(ctx context.Context, id string, patch transaction.OverlayPatch) error
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionRepo) ListByUserID(ctx context.Context, userID, accountID string) ([]*transaction.Transaction, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, accountID)
	}
	return nil, nil
}

func (m *MockTransactionRepo) UpdateOverlay(ctx context.Context, id string, patch transaction.OverlayPatch) error {
	if m.UpdateOverlayFunc != nil {
		return m.UpdateOverlayFunc(ctx, id, patch)
	}
	return nil
}

// MockLinker implements Linker for testing
type MockLinker struct {
	CreateLinkTokenFunc func(ctx context.Context, userID string) (string, error)
	EstablishLinkFunc   func(ctx context.Context, userID, publicToken string) (*item.LinkedItem, error)
}

func (m *MockLinker) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return "link-sandbox-token", nil
}

func (m *MockLinker) EstablishLink(ctx context.Context, userID, publicToken string) (*item.LinkedItem, error) {
	if m.EstablishLinkFunc != nil {
		return m.EstablishLinkFunc(ctx, userID, publicToken)
	}
	return &item.LinkedItem{ItemID: "i1", UserID: userID}, nil
}

// MockSyncer implements Syncer and Refresher for testing
type MockSyncer struct {
	SyncTransactionsFunc func(ctx context.Context, userID, itemID string) (*itemsync.SyncResult, error)
	RefreshBalancesFunc  func(ctx context.Context, userID, itemID string) (int, error)
}

func (m *MockSyncer) SyncTransactions(ctx context.Context, userID, itemID string) (*itemsync.SyncResult, error) {
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, userID, itemID)
	}
	return &itemsync.SyncResult{}, nil
}

func (m *MockSyncer) RefreshBalances(ctx context.Context, userID, itemID string) (int, error) {
	if m.RefreshBalancesFunc != nil {
		return m.RefreshBalancesFunc(ctx, userID, itemID)
	}
	return 0, nil
}

// MockItemRepo implements item.Repository for testing
type MockItemRepo struct {
	ListByUserIDFunc func(ctx context.Context, userID string) ([]*item.LinkedItem, error)
}

func (m *MockItemRepo) Get(ctx context.Context, itemID string) (*item.LinkedItem, error) {
	return nil, item.ErrItemNotFound
}
func (m *MockItemRepo) Save(ctx context.Context, it *item.LinkedItem) error { return nil }
func (m *MockItemRepo) SaveCursor(ctx context.Context, itemID, cursor string, syncedAt *time.Time) error {
	return nil
}
func (m *MockItemRepo) ListByUserID(ctx context.Context, userID string) ([]*item.LinkedItem, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}
func (m *MockItemRepo) ListAll(ctx context.Context) ([]*item.LinkedItem, error) { return nil, nil }

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// authedRequest builds a request carrying userID the way the Auth middleware would.
func authedRequest(t *testing.T, method, target, body, userID string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

// serve routes req through a mux so PathValue is populated.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

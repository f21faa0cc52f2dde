package itemsync

import (
	"context"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/infrastructure/docstore"
	"budgetmint/internal/infrastructure/plaid"
	"budgetmint/internal/infrastructure/store"
)

// MockClient is a mock implementation of plaid.ClientInterface
type MockClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID string) (*plaid.LinkTokenResponse, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error)
	SyncTransactionsFunc    func(ctx context.Context, accessToken, cursor string, count int) (*plaid.SyncResponse, error)
	GetBalancesFunc         func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error)
}

func (m *MockClient) CreateLinkToken(ctx context.Context, userID string) (*plaid.LinkTokenResponse, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return &plaid.LinkTokenResponse{LinkToken: "link-sandbox-token"}, nil
}

func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return nil, &plaid.APIError{StatusCode: 400, ErrorCode: plaid.CodeInvalidPublicToken}
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return &plaid.AccountsResponse{}, nil
}

func (m *MockClient) SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*plaid.SyncResponse, error) {
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, accessToken, cursor, count)
	}
	return &plaid.SyncResponse{NextCursor: cursor}, nil
}

func (m *MockClient) GetBalances(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
	if m.GetBalancesFunc != nil {
		return m.GetBalancesFunc(ctx, accessToken)
	}
	return &plaid.AccountsResponse{}, nil
}

// plainCipher stores tokens unsealed.
type plainCipher struct{}

func (plainCipher) Encrypt(s string) (string, error) { return s, nil }
func (plainCipher) Decrypt(s string) (string, error) { return s, nil }

var testNow = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *store.MemoryStore
	items *docstore.ItemRepository
	feed  *MockClient
}

func newFixture(t *testing.T, maxBatch int) *fixture {
	t.Helper()
	s := store.NewMemoryStore(maxBatch)
	f := &fixture{
		store: s,
		items: docstore.NewItemRepository(s, plainCipher{}),
		feed:  &MockClient{},
	}
	require.NoError(t, f.items.Save(context.Background(), &item.LinkedItem{
		ItemID:      "i1",
		UserID:      "U",
		AccessToken: "access-sandbox-i1",
		CreatedAt:   testNow.Add(-24 * time.Hour),
	}))
	return f
}

func (f *fixture) engine(opts Options) *SyncEngine {
	e := NewSyncEngine(f.store, f.items, f.feed, quietLogger(), opts)
	e.now = func() time.Time { return testNow }
	return e
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func feedTxn(id, amt string) plaid.Transaction {
	return plaid.Transaction{
		TransactionID:  id,
		AccountID:      "a1",
		Amount:         decimal.RequireFromString(amt),
		Date:           civil.Date{Year: 2024, Month: time.May, Day: 1},
		Name:           "Coffee Shop",
		PaymentChannel: "in store",
		PersonalFinanceCategory: &plaid.PersonalFinanceCategory{
			Primary:  "FOOD_AND_DRINK",
			Detailed: "FOOD_AND_DRINK_COFFEE",
		},
	}
}

func removed(id string) plaid.RemovedTransaction {
	return plaid.RemovedTransaction{TransactionID: id, AccountID: "a1"}
}

// pageScript is one expected page request and its reply.
type pageScript struct {
	cursor string
	resp   *plaid.SyncResponse
	err    error
}

func scripted(t *testing.T, script ...pageScript) func(ctx context.Context, accessToken, cursor string, count int) (*plaid.SyncResponse, error) {
	calls := 0
	return func(ctx context.Context, accessToken, cursor string, count int) (*plaid.SyncResponse, error) {
		t.Helper()
		require.Less(t, calls, len(script), "unexpected page request with cursor %q", cursor)
		step := script[calls]
		calls++
		require.Equal(t, step.cursor, cursor)
		return step.resp, step.err
	}
}

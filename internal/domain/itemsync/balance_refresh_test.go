package itemsync

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetmint/internal/domain/account"
	"budgetmint/internal/infrastructure/docstore"
	"budgetmint/internal/infrastructure/plaid"
)

func newRefresher(f *fixture) *BalanceRefresher {
	r := NewBalanceRefresher(f.store, f.items, f.feed, quietLogger(), Options{})
	r.now = func() time.Time { return testNow }
	return r
}

func TestRefreshBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	accounts := docstore.NewAccountRepository(f.store)

	existing := &account.Account{
		AccountID:      "a1",
		ItemID:         "i1",
		UserID:         "U",
		Name:           "My Checking",
		Type:           "depository",
		BalanceCurrent: decimal.NewNullDecimal(decimal.RequireFromString("100")),
	}
	require.NoError(t, f.store.Set(ctx, account.Collection, "a1", existing.Fields()))

	f.feed.GetBalancesFunc = func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
		assert.Equal(t, "access-sandbox-i1", accessToken)
		checking := feedAccount("a1", "Checking", "depository", "90.25")
		checking.Balances.Available = decimal.NewNullDecimal(decimal.RequireFromString("80"))
		return &plaid.AccountsResponse{Accounts: []plaid.Account{
			checking,
			feedAccount("a2", "Savings", "depository", "5000"),
		}}, nil
	}

	n, err := newRefresher(f).RefreshBalances(ctx, "U", "i1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a1, err := accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "My Checking", a1.Name, "refresh must only touch balance fields")
	assert.Equal(t, "90.25", a1.BalanceCurrent.Decimal.String())
	assert.Equal(t, "80", a1.BalanceAvailable.Decimal.String())
	require.NotNil(t, a1.LastBalanceUpdate)
	assert.True(t, a1.LastBalanceUpdate.Equal(testNow))

	a2, err := accounts.GetByID(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "Savings", a2.Name)
	assert.Equal(t, "U", a2.UserID)
	assert.Equal(t, "i1", a2.ItemID)
	assert.False(t, a2.BalanceAvailable.Valid)
	require.NotNil(t, a2.LastBalanceUpdate)
}

func TestRefreshBalances_Errors(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		feed   func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error)
		want   error
	}{
		{
			name:   "other user",
			userID: "V",
			want:   ErrPermission,
		},
		{
			name:   "login required",
			userID: "U",
			feed: func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
				return nil, &plaid.APIError{StatusCode: 400, ErrorCode: plaid.CodeItemLoginRequired}
			},
			want: ErrUpstreamAuth,
		},
		{
			name:   "institution down",
			userID: "U",
			feed: func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
				return nil, &plaid.APIError{StatusCode: 400, ErrorType: "INSTITUTION_ERROR"}
			},
			want: ErrUpstreamTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.feed.GetBalancesFunc = tt.feed
			_, err := newRefresher(f).RefreshBalances(context.Background(), tt.userID, "i1")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, f.store.Count(account.Collection))
		})
	}
}

package itemsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetmint/internal/domain/account"
	"budgetmint/internal/domain/item"
	"budgetmint/internal/infrastructure/docstore"
	"budgetmint/internal/infrastructure/plaid"
	"budgetmint/internal/infrastructure/store"
)

func strPtr(s string) *string { return &s }

func feedAccount(id, name, kind, current string) plaid.Account {
	return plaid.Account{
		AccountID: id,
		Name:      name,
		Type:      kind,
		Balances: plaid.Balances{
			Current:         decimal.NewNullDecimal(decimal.RequireFromString(current)),
			ISOCurrencyCode: strPtr("USD"),
		},
	}
}

func newLinkManager(f *fixture) *LinkManager {
	m := NewLinkManager(f.store, f.items, f.feed, quietLogger(), Options{})
	m.now = func() time.Time { return testNow }
	return m
}

func TestEstablishLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.feed.ExchangePublicTokenFunc = func(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
		assert.Equal(t, "public-sandbox-1", publicToken)
		return &plaid.ExchangeResponse{AccessToken: "access-sandbox-2", ItemID: "i2"}, nil
	}
	f.feed.GetAccountsFunc = func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
		assert.Equal(t, "access-sandbox-2", accessToken)
		return &plaid.AccountsResponse{
			Accounts: []plaid.Account{
				feedAccount("a1", "Checking", "depository", "100.00"),
				feedAccount("a2", "Visa", "credit", "250.10"),
			},
			Item: plaid.Item{ItemID: "i2", InstitutionID: strPtr("ins_1")},
		}, nil
	}

	linked, err := newLinkManager(f).EstablishLink(ctx, "U", "public-sandbox-1")
	require.NoError(t, err)
	assert.Equal(t, "i2", linked.ItemID)
	require.NotNil(t, linked.InstitutionID)
	assert.Equal(t, "ins_1", *linked.InstitutionID)

	stored, err := f.items.Get(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, "U", stored.UserID)
	assert.Equal(t, "access-sandbox-2", stored.AccessToken)
	assert.Nil(t, stored.Cursor)
	assert.Nil(t, stored.LastSyncedAt)
	require.NotNil(t, stored.InstitutionID)
	assert.Equal(t, "ins_1", *stored.InstitutionID)

	accounts, err := docstore.NewAccountRepository(f.store).ListByItemID(ctx, "i2")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.Equal(t, "U", accounts[0].UserID)
	assert.Equal(t, "100", accounts[0].BalanceCurrent.Decimal.String())
	assert.True(t, accounts[1].IsLiability())
}

func TestEstablishLink_Validation(t *testing.T) {
	f := newFixture(t, 0)
	m := newLinkManager(f)

	_, err := m.EstablishLink(context.Background(), "", "public-sandbox-1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = m.EstablishLink(context.Background(), "U", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEstablishLink_ExchangeRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	_, err := newLinkManager(f).EstablishLink(ctx, "U", "public-expired")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamAuth)
	assert.Equal(t, 1, f.store.Count(item.Collection))
}

func TestEstablishLink_SnapshotWriteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.feed.ExchangePublicTokenFunc = func(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
		return &plaid.ExchangeResponse{AccessToken: "access-sandbox-2", ItemID: "i2"}, nil
	}
	f.feed.GetAccountsFunc = func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
		return &plaid.AccountsResponse{Accounts: []plaid.Account{feedAccount("a1", "Checking", "depository", "1")}}, nil
	}
	f.store.BeforeCommit = func(commit int, ops []store.Op) error {
		if ops[0].Collection == account.Collection {
			return errors.New("unavailable")
		}
		return nil
	}

	_, err := newLinkManager(f).EstablishLink(ctx, "U", "public-sandbox-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	// The item stays linked with a null cursor; a later sync or refresh fills in.
	_, err = f.items.Get(ctx, "i2")
	assert.NoError(t, err)
}

func TestEstablishLink_SnapshotFetchFailsThenRefreshRecovers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.feed.ExchangePublicTokenFunc = func(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
		return &plaid.ExchangeResponse{AccessToken: "access-sandbox-2", ItemID: "i2"}, nil
	}
	f.feed.GetAccountsFunc = func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
		return nil, &plaid.APIError{StatusCode: 503, ErrorType: "INSTITUTION_ERROR"}
	}

	_, err := newLinkManager(f).EstablishLink(ctx, "U", "public-sandbox-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamTransient)

	it, err := f.items.Get(ctx, "i2")
	require.NoError(t, err)
	assert.Nil(t, it.Cursor)
	assert.Equal(t, 0, f.store.Count(account.Collection))

	// The public token is spent, so the accounts arrive with the first refresh.
	f.feed.GetBalancesFunc = func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
		assert.Equal(t, "access-sandbox-2", accessToken)
		return &plaid.AccountsResponse{Accounts: []plaid.Account{feedAccount("a1", "Checking", "depository", "42.00")}}, nil
	}
	r := NewBalanceRefresher(f.store, f.items, f.feed, quietLogger(), Options{})
	n, err := r.RefreshBalances(ctx, "U", "i2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a1, err := docstore.NewAccountRepository(f.store).GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "i2", a1.ItemID)
	assert.Equal(t, "U", a1.UserID)
	assert.Equal(t, "42", a1.BalanceCurrent.Decimal.String())
}

func TestCreateLinkToken(t *testing.T) {
	f := newFixture(t, 0)
	m := newLinkManager(f)

	token, err := m.CreateLinkToken(context.Background(), "U")
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-token", token)

	_, err = m.CreateLinkToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

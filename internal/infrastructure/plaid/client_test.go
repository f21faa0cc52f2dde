package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ClientID:     "client-id",
		Secret:       "secret",
		BaseURL:      srv.URL,
		ClientName:   "BudgetMint",
		Products:     []string{"transactions"},
		CountryCodes: []string{"US"},
		Language:     "en",
	})
}

func TestCreateLinkToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, linkTokenCreatePath, r.URL.Path)
		assert.Equal(t, "client-id", r.Header.Get("PLAID-CLIENT-ID"))
		assert.Equal(t, "secret", r.Header.Get("PLAID-SECRET"))

		var body linkTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body.User.ClientUserID)
		assert.Equal(t, "BudgetMint", body.ClientName)
		assert.Equal(t, []string{"transactions"}, body.Products)
		assert.Equal(t, []string{"US"}, body.CountryCodes)
		assert.Empty(t, body.Webhook)

		w.Write([]byte(`{"link_token":"link-sandbox-123","expiration":"2024-01-05T00:00:00Z","request_id":"r1"}`))
	})

	resp, err := client.CreateLinkToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-123", resp.LinkToken)
}

func TestExchangePublicToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, exchangePath, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "public-sandbox-1", body["public_token"])
		w.Write([]byte(`{"access_token":"access-sandbox-1","item_id":"item-1"}`))
	})

	resp, err := client.ExchangePublicToken(context.Background(), "public-sandbox-1")
	require.NoError(t, err)
	assert.Equal(t, "access-sandbox-1", resp.AccessToken)
	assert.Equal(t, "item-1", resp.ItemID)
}

func TestGetAccounts_NullableBalances(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, accountsPath, r.URL.Path)
		w.Write([]byte(`{
			"accounts": [
				{"account_id":"a1","name":"Checking","type":"depository","subtype":"checking","mask":"0000",
				 "balances":{"current":110.25,"available":100,"iso_currency_code":"USD"}},
				{"account_id":"a2","name":"Card","type":"credit","subtype":null,"mask":null,
				 "balances":{"current":"410.10","available":null}}
			],
			"item": {"item_id":"item-1","institution_id":"ins_109508"}
		}`))
	})

	resp, err := client.GetAccounts(context.Background(), "access-1")
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 2)
	require.NotNil(t, resp.Item.InstitutionID)
	assert.Equal(t, "ins_109508", *resp.Item.InstitutionID)

	checking := resp.Accounts[0]
	assert.True(t, checking.Balances.Current.Valid)
	assert.True(t, checking.Balances.Current.Decimal.Equal(decimal.RequireFromString("110.25")))
	assert.Equal(t, "checking", *checking.Subtype)

	card := resp.Accounts[1]
	assert.True(t, card.Balances.Current.Decimal.Equal(decimal.RequireFromString("410.10")))
	assert.False(t, card.Balances.Available.Valid)
	assert.Nil(t, card.Subtype)
	assert.Nil(t, card.Mask)
}

func TestGetBalances_Path(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, balancesPath, r.URL.Path)
		w.Write([]byte(`{"accounts":[],"item":{"item_id":"item-1"}}`))
	})

	resp, err := client.GetBalances(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Accounts)
}

func TestSyncTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transactionsPath, r.URL.Path)

		var body syncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "access-1", body.AccessToken)
		assert.Equal(t, "c0", body.Cursor)
		assert.Equal(t, 100, body.Count)
		assert.True(t, body.Options.IncludePersonalFinanceCategory)

		w.Write([]byte(`{
			"added":[{"transaction_id":"t1","account_id":"a1","amount":12.00,"date":"2024-01-05","name":"STARBUCKS",
			          "merchant_name":"Starbucks","payment_channel":"in store","pending":true,
			          "personal_finance_category":{"primary":"FOOD_AND_DRINK","detailed":"FOOD_AND_DRINK_COFFEE","confidence_level":"VERY_HIGH"}}],
			"modified":[],
			"removed":[{"transaction_id":"t0"}],
			"next_cursor":"c1",
			"has_more":false
		}`))
	})

	resp, err := client.SyncTransactions(context.Background(), "access-1", "c0", 100)
	require.NoError(t, err)
	require.Len(t, resp.Added, 1)
	require.Len(t, resp.Removed, 1)
	assert.Equal(t, "c1", resp.NextCursor)
	assert.False(t, resp.HasMore)

	txn := resp.Added[0]
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("12")))
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 5}, txn.Date)
	assert.Equal(t, "Starbucks", *txn.MerchantName)
	assert.Equal(t, "FOOD_AND_DRINK", txn.PersonalFinanceCategory.Primary)
	assert.Equal(t, "t0", resp.Removed[0].TransactionID)
}

func TestSyncTransactions_EmptyCursorOmitted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasCursor := body["cursor"]
		assert.False(t, hasCursor)
		w.Write([]byte(`{"added":[],"modified":[],"removed":[],"next_cursor":"c1","has_more":false}`))
	})

	_, err := client.SyncTransactions(context.Background(), "access-1", "", 0)
	require.NoError(t, err)
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		wantAuth       bool
		wantTransient  bool
		wantPagination bool
	}{
		{
			name:     "login required",
			status:   http.StatusBadRequest,
			body:     `{"error_type":"ITEM_ERROR","error_code":"ITEM_LOGIN_REQUIRED","error_message":"login required"}`,
			wantAuth: true,
		},
		{
			name:     "invalid public token",
			status:   http.StatusBadRequest,
			body:     `{"error_type":"INVALID_INPUT","error_code":"INVALID_PUBLIC_TOKEN","error_message":"bad token"}`,
			wantAuth: true,
		},
		{
			name:          "rate limit",
			status:        http.StatusTooManyRequests,
			body:          `{"error_type":"RATE_LIMIT_EXCEEDED","error_code":"TRANSACTIONS_SYNC_LIMIT"}`,
			wantTransient: true,
		},
		{
			name:          "server error without body",
			status:        http.StatusBadGateway,
			body:          `upstream unavailable`,
			wantTransient: true,
		},
		{
			name:           "mutation during pagination",
			status:         http.StatusBadRequest,
			body:           `{"error_type":"TRANSACTIONS_ERROR","error_code":"TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION"}`,
			wantPagination: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.SyncTransactions(context.Background(), "access-1", "", 0)
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "expected *APIError, got %T", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantAuth, apiErr.IsAuth())
			assert.Equal(t, tt.wantTransient, apiErr.IsTransient())
			assert.Equal(t, tt.wantPagination, apiErr.IsPaginationMutation())
		})
	}
}

func TestBaseURL(t *testing.T) {
	u, err := BaseURL("sandbox")
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.plaid.com", u)

	_, err = BaseURL("staging")
	assert.Error(t, err)
}

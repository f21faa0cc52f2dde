package plaid

import (
	"context"
)

// ClientInterface defines the methods required from the Plaid API client
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, userID string) (*LinkTokenResponse, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error)
	// SyncTransactions fetches one page of deltas. An empty cursor requests full history.
	SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*SyncResponse, error)
	GetBalances(ctx context.Context, accessToken string) (*AccountsResponse, error)
}

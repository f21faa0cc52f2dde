package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 60 * time.Second

	linkTokenCreatePath = "/link/token/create"
	exchangePath        = "/item/public_token/exchange"
	accountsPath        = "/accounts/get"
	balancesPath        = "/accounts/balance/get"
	transactionsPath    = "/transactions/sync"
)

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// BaseURL returns the API host for a Plaid environment name.
func BaseURL(environment string) (string, error) {
	u, ok := environments[environment]
	if !ok {
		return "", fmt.Errorf("unknown plaid environment %q", environment)
	}
	return u, nil
}

// Config holds the credentials and link options for the client
type Config struct {
	ClientID     string
	Secret       string
	BaseURL      string
	ClientName   string
	Products     []string
	CountryCodes []string
	Language     string
	WebhookURL   string
	Timeout      time.Duration
}

// Client handles communication with the Plaid API
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Plaid API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cfg: cfg,
	}
}

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenRequest struct {
	User         linkTokenUser `json:"user"`
	ClientName   string        `json:"client_name"`
	Products     []string      `json:"products"`
	CountryCodes []string      `json:"country_codes"`
	Language     string        `json:"language"`
	Webhook      string        `json:"webhook,omitempty"`
}

// CreateLinkToken creates a short-lived token the client uses to open Link
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (*LinkTokenResponse, error) {
	req := linkTokenRequest{
		User:         linkTokenUser{ClientUserID: userID},
		ClientName:   c.cfg.ClientName,
		Products:     c.cfg.Products,
		CountryCodes: c.cfg.CountryCodes,
		Language:     c.cfg.Language,
		Webhook:      c.cfg.WebhookURL,
	}

	var resp LinkTokenResponse
	if err := c.post(ctx, linkTokenCreatePath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangePublicToken trades a Link public token for a durable access token
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	req := map[string]string{"public_token": publicToken}

	var resp ExchangeResponse
	if err := c.post(ctx, exchangePath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAccounts fetches the cached account snapshot for an item
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	return c.accounts(ctx, accountsPath, accessToken)
}

// GetBalances fetches real-time balances for an item
func (c *Client) GetBalances(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	return c.accounts(ctx, balancesPath, accessToken)
}

func (c *Client) accounts(ctx context.Context, path, accessToken string) (*AccountsResponse, error) {
	req := map[string]string{"access_token": accessToken}

	var resp AccountsResponse
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type syncOptions struct {
	IncludePersonalFinanceCategory bool `json:"include_personal_finance_category"`
}

type syncRequest struct {
	AccessToken string      `json:"access_token"`
	Cursor      string      `json:"cursor,omitempty"`
	Count       int         `json:"count,omitempty"`
	Options     syncOptions `json:"options"`
}

// SyncTransactions fetches one page of transaction deltas after cursor
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*SyncResponse, error) {
	req := syncRequest{
		AccessToken: accessToken,
		Cursor:      cursor,
		Count:       count,
		Options:     syncOptions{IncludePersonalFinanceCategory: true},
	}

	var resp SyncResponse
	if err := c.post(ctx, transactionsPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends an authenticated JSON request. Non-200 responses are returned as *APIError.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", c.cfg.ClientID)
	req.Header.Set("PLAID-SECRET", c.cfg.Secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

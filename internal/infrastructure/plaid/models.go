package plaid

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// LinkTokenResponse is returned by /link/token/create
type LinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

// ExchangeResponse is returned by /item/public_token/exchange
type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

// AccountsResponse is returned by /accounts/get and /accounts/balance/get
type AccountsResponse struct {
	Accounts  []Account `json:"accounts"`
	Item      Item      `json:"item"`
	RequestID string    `json:"request_id"`
}

// Item is the item metadata attached to account responses
type Item struct {
	ItemID        string  `json:"item_id"`
	InstitutionID *string `json:"institution_id"`
	Webhook       string  `json:"webhook"`
}

// Account represents an account from the Plaid API
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName *string  `json:"official_name"`
	Type         string   `json:"type"`
	Subtype      *string  `json:"subtype"`
	Mask         *string  `json:"mask"`
	Balances     Balances `json:"balances"`
}

// Balances may be null upstream for some account types
type Balances struct {
	Current                decimal.NullDecimal `json:"current"`
	Available              decimal.NullDecimal `json:"available"`
	Limit                  decimal.NullDecimal `json:"limit"`
	ISOCurrencyCode        *string             `json:"iso_currency_code"`
	UnofficialCurrencyCode *string             `json:"unofficial_currency_code"`
}

// SyncResponse is one page of /transactions/sync
type SyncResponse struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
	RequestID  string               `json:"request_id"`
}

// Transaction represents a transaction from the Plaid API.
// Amount is positive for money leaving the account.
type Transaction struct {
	TransactionID                  string                   `json:"transaction_id"`
	AccountID                      string                   `json:"account_id"`
	Amount                         decimal.Decimal          `json:"amount"`
	ISOCurrencyCode                *string                  `json:"iso_currency_code"`
	Date                           civil.Date               `json:"date"`
	Name                           string                   `json:"name"`
	MerchantName                   *string                  `json:"merchant_name"`
	PaymentChannel                 string                   `json:"payment_channel"`
	Pending                        bool                     `json:"pending"`
	PendingTransactionID           *string                  `json:"pending_transaction_id"`
	LogoURL                        *string                  `json:"logo_url"`
	Website                        *string                  `json:"website"`
	PersonalFinanceCategory        *PersonalFinanceCategory `json:"personal_finance_category"`
	PersonalFinanceCategoryIconURL *string                  `json:"personal_finance_category_icon_url"`
}

// PersonalFinanceCategory is Plaid's opaque classification
type PersonalFinanceCategory struct {
	Primary         string `json:"primary"`
	Detailed        string `json:"detailed"`
	ConfidenceLevel string `json:"confidence_level"`
}

// RemovedTransaction only carries the id of a deleted transaction
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
}

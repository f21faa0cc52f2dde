package transaction

import (
	"errors"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Collection is the store collection holding transactions, keyed by transactionId.
const Collection = "transactions"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)

// Transaction is one upstream transaction plus the user-owned overlay.
// Amount is positive for outflows (debits) and negative for inflows (credits).
type Transaction struct {
	TransactionID        string          `json:"id"`
	AccountID            string          `json:"accountId"`
	UserID               string          `json:"userId"`
	Amount               decimal.Decimal `json:"amount"`
	Date                 civil.Date      `json:"date"`
	MerchantName         *string         `json:"merchantName"`
	Name                 string          `json:"name"`
	Category             *string         `json:"category"`
	CategoryDetailed     *string         `json:"categoryDetailed"`
	CategoryConfidence   *string         `json:"categoryConfidence"`
	CategoryIconURL      *string         `json:"categoryIconUrl"`
	PaymentChannel       string          `json:"paymentChannel"`
	Pending              bool            `json:"pending"`
	PendingTransactionID *string         `json:"pendingTransactionId"`
	LogoURL              *string         `json:"logoUrl"`
	Website              *string         `json:"website"`
	ISOCurrencyCode      *string         `json:"isoCurrencyCode"`

	// Overlay, edited only by the user
	UserCategory *string  `json:"userCategory"`
	Tags         []string `json:"tags"`
	Notes        string   `json:"notes"`
}

// DisplayCategory is the user's override when set, else the upstream category.
func (t *Transaction) DisplayCategory() string {
	if t.UserCategory != nil {
		return *t.UserCategory
	}
	if t.Category != nil {
		return *t.Category
	}
	return ""
}

// IsOutflow reports money leaving the account.
func (t *Transaction) IsOutflow() bool {
	return t.Amount.IsPositive()
}

// IsInflow reports money entering the account.
func (t *Transaction) IsInflow() bool {
	return t.Amount.IsNegative()
}

// NetCashFlow is inflows minus outflows, so a positive result means the user
// took in more than they spent.
func NetCashFlow(txns []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Sub(t.Amount)
	}
	return total
}

// SpendingByCategory sums outflows per display category.
func SpendingByCategory(txns []*Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if !t.IsOutflow() {
			continue
		}
		key := t.DisplayCategory()
		out[key] = out[key].Add(t.Amount)
	}
	return out
}

package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Collection is the store collection holding accounts, keyed by accountId.
const Collection = "accounts"

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrInvalidInput    = errors.New("invalid input")
)

// liabilityTypes hold balances that are owed rather than owned.
var liabilityTypes = map[string]struct{}{
	"credit": {},
	"loan":   {},
}

// Account represents one upstream financial account
type Account struct {
	AccountID         string              `json:"id"`
	ItemID            string              `json:"itemId"`
	UserID            string              `json:"userId"`
	Name              string              `json:"name"`
	OfficialName      *string             `json:"officialName"`
	Type              string              `json:"type"`
	Subtype           *string             `json:"subtype"`
	BalanceCurrent    decimal.NullDecimal `json:"balanceCurrent"`
	BalanceAvailable  decimal.NullDecimal `json:"balanceAvailable"`
	ISOCurrencyCode   *string             `json:"isoCurrencyCode"`
	Mask              *string             `json:"mask"`
	InstitutionID     *string             `json:"institutionId"`
	LastBalanceUpdate *time.Time          `json:"lastBalanceUpdate"`
}

// IsLiability reports whether the balance is money owed (credit cards, loans).
func (a *Account) IsLiability() bool {
	_, ok := liabilityTypes[a.Type]
	return ok
}

// NetWorthContribution is the current balance signed for net worth:
// liabilities subtract their absolute balance, everything else adds it.
// Accounts with no current balance contribute zero.
func (a *Account) NetWorthContribution() decimal.Decimal {
	if !a.BalanceCurrent.Valid {
		return decimal.Zero
	}
	if a.IsLiability() {
		return a.BalanceCurrent.Decimal.Abs().Neg()
	}
	return a.BalanceCurrent.Decimal
}

// NetWorth sums the contribution of each account.
func NetWorth(accounts []*Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.NetWorthContribution())
	}
	return total
}

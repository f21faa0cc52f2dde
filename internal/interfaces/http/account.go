package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/account"
)

type AccountHandler struct {
	accountService *account.Service
	logger         logrus.FieldLogger
}

func NewAccountHandler(accountService *account.Service, logger logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: logger.WithField("handler", "accounts")}
}

// AccountResponse is the client-facing account. Balances are decimal strings.
type AccountResponse struct {
	AccountID         string              `json:"accountId"`
	ItemID            string              `json:"itemId"`
	Name              string              `json:"name"`
	OfficialName      *string             `json:"officialName"`
	AccountType       string              `json:"accountType"` // "normal", "saving", "credit", "loan", "investment"
	Type              string              `json:"type"`
	Subtype           *string             `json:"subtype"`
	Mask              *string             `json:"mask"`
	BalanceCurrent    decimal.NullDecimal `json:"balanceCurrent"`
	BalanceAvailable  decimal.NullDecimal `json:"balanceAvailable"`
	ISOCurrencyCode   *string             `json:"isoCurrencyCode"`
	InstitutionID     *string             `json:"institutionId"`
	LastBalanceUpdate *string             `json:"lastBalanceUpdate"`
}

type NetWorthResponse struct {
	NetWorth decimal.Decimal `json:"netWorth"`
}

// HandleListAccounts handles GET /api/accounts
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountService.ListAccountsByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, toAccountResponse(acc))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleAccountByID handles GET /api/accounts/{id}
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	acc, err := h.accountService.GetAccount(r.Context(), accountID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

// HandleNetWorth handles GET /api/accounts/net-worth
func (h *AccountHandler) HandleNetWorth(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	total, err := h.accountService.NetWorth(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, NetWorthResponse{NetWorth: total})
}

func toAccountResponse(acc *account.Account) AccountResponse {
	var lastUpdate *string
	if acc.LastBalanceUpdate != nil {
		s := acc.LastBalanceUpdate.UTC().Format(time.RFC3339)
		lastUpdate = &s
	}

	return AccountResponse{
		AccountID:         acc.AccountID,
		ItemID:            acc.ItemID,
		Name:              acc.Name,
		OfficialName:      acc.OfficialName,
		AccountType:       mapAccountType(acc.Type, acc.Subtype),
		Type:              acc.Type,
		Subtype:           acc.Subtype,
		Mask:              acc.Mask,
		BalanceCurrent:    acc.BalanceCurrent,
		BalanceAvailable:  acc.BalanceAvailable,
		ISOCurrencyCode:   acc.ISOCurrencyCode,
		InstitutionID:     acc.InstitutionID,
		LastBalanceUpdate: lastUpdate,
	}
}

// mapAccountType maps the upstream type and subtype to the client account type
func mapAccountType(accountType string, subtype *string) string {
	switch accountType {
	case "credit":
		return "credit"
	case "loan":
		return "loan"
	case "investment", "brokerage":
		return "investment"
	}
	if subtype != nil && (*subtype == "savings" || *subtype == "money market" || *subtype == "cd") {
		return "saving"
	}
	return "normal"
}

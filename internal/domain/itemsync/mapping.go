package itemsync

import (
	"budgetmint/internal/domain/account"
	"budgetmint/internal/domain/transaction"
	"budgetmint/internal/infrastructure/plaid"
)

func accountFromFeed(userID, itemID string, institutionID *string, a plaid.Account) *account.Account {
	return &account.Account{
		AccountID:        a.AccountID,
		ItemID:           itemID,
		UserID:           userID,
		Name:             a.Name,
		OfficialName:     a.OfficialName,
		Type:             a.Type,
		Subtype:          a.Subtype,
		BalanceCurrent:   a.Balances.Current,
		BalanceAvailable: a.Balances.Available,
		ISOCurrencyCode:  a.Balances.ISOCurrencyCode,
		Mask:             a.Mask,
		InstitutionID:    institutionID,
	}
}

func transactionFromFeed(userID string, t plaid.Transaction) *transaction.Transaction {
	txn := &transaction.Transaction{
		TransactionID:        t.TransactionID,
		AccountID:            t.AccountID,
		UserID:               userID,
		Amount:               t.Amount,
		Date:                 t.Date,
		MerchantName:         t.MerchantName,
		Name:                 t.Name,
		CategoryIconURL:      t.PersonalFinanceCategoryIconURL,
		PaymentChannel:       t.PaymentChannel,
		Pending:              t.Pending,
		PendingTransactionID: t.PendingTransactionID,
		LogoURL:              t.LogoURL,
		Website:              t.Website,
		ISOCurrencyCode:      t.ISOCurrencyCode,
	}
	if pfc := t.PersonalFinanceCategory; pfc != nil {
		txn.Category = nonEmpty(pfc.Primary)
		txn.CategoryDetailed = nonEmpty(pfc.Detailed)
		txn.CategoryConfidence = nonEmpty(pfc.ConfidenceLevel)
	}
	return txn
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

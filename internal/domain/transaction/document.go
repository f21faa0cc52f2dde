package transaction

import (
	"fmt"

	"budgetmint/internal/infrastructure/store"
)

// Stored field names.
const (
	FieldUserID               = "userId"
	FieldAccountID            = "accountId"
	FieldTransactionID        = "transactionId"
	FieldAmount               = "amount"
	FieldDate                 = "date"
	FieldMerchantName         = "merchantName"
	FieldName                 = "name"
	FieldCategory             = "category"
	FieldCategoryDetailed     = "categoryDetailed"
	FieldCategoryConfidence   = "categoryConfidence"
	FieldCategoryIconURL      = "categoryIconUrl"
	FieldPaymentChannel       = "paymentChannel"
	FieldPending              = "pending"
	FieldPendingTransactionID = "pendingTransactionId"
	FieldLogoURL              = "logoUrl"
	FieldWebsite              = "website"
	FieldISOCurrencyCode      = "isoCurrencyCode"

	FieldUserCategory = "userCategory"
	FieldTags         = "tags"
	FieldNotes        = "notes"
)

// OverlayFieldNames are owned by the user and never written by sync after creation.
var OverlayFieldNames = []string{FieldUserCategory, FieldTags, FieldNotes}

// FeedFields is every upstream-owned field.
func (t *Transaction) FeedFields() store.Fields {
	return store.Fields{
		FieldUserID:               t.UserID,
		FieldAccountID:            t.AccountID,
		FieldTransactionID:        t.TransactionID,
		FieldAmount:               store.DecimalValue(t.Amount),
		FieldDate:                 store.DateValue(t.Date),
		FieldMerchantName:         store.StringPtrValue(t.MerchantName),
		FieldName:                 t.Name,
		FieldCategory:             store.StringPtrValue(t.Category),
		FieldCategoryDetailed:     store.StringPtrValue(t.CategoryDetailed),
		FieldCategoryConfidence:   store.StringPtrValue(t.CategoryConfidence),
		FieldCategoryIconURL:      store.StringPtrValue(t.CategoryIconURL),
		FieldPaymentChannel:       t.PaymentChannel,
		FieldPending:              t.Pending,
		FieldPendingTransactionID: store.StringPtrValue(t.PendingTransactionID),
		FieldLogoURL:              store.StringPtrValue(t.LogoURL),
		FieldWebsite:              store.StringPtrValue(t.Website),
		FieldISOCurrencyCode:      store.StringPtrValue(t.ISOCurrencyCode),
	}
}

// ModifiedFields is the subset a "modified" delta may overwrite.
func (t *Transaction) ModifiedFields() store.Fields {
	return store.Fields{
		FieldAmount:       store.DecimalValue(t.Amount),
		FieldDate:         store.DateValue(t.Date),
		FieldPending:      t.Pending,
		FieldMerchantName: store.StringPtrValue(t.MerchantName),
	}
}

// NewRecordFields is the stored form of a first delivery: feed fields with
// the overlay at its empty defaults.
func (t *Transaction) NewRecordFields() store.Fields {
	f := t.FeedFields()
	f[FieldUserCategory] = nil
	f[FieldTags] = []string{}
	f[FieldNotes] = ""
	return f
}

// FromDocument decodes a stored transaction.
func FromDocument(doc *store.Document) (*Transaction, error) {
	f := doc.Fields
	amount, err := f.Decimal(FieldAmount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", doc.ID, err)
	}
	date, err := f.Date(FieldDate)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", doc.ID, err)
	}

	return &Transaction{
		TransactionID:        doc.ID,
		AccountID:            f.String(FieldAccountID),
		UserID:               f.String(FieldUserID),
		Amount:               amount.Decimal,
		Date:                 date,
		MerchantName:         f.StringPtr(FieldMerchantName),
		Name:                 f.String(FieldName),
		Category:             f.StringPtr(FieldCategory),
		CategoryDetailed:     f.StringPtr(FieldCategoryDetailed),
		CategoryConfidence:   f.StringPtr(FieldCategoryConfidence),
		CategoryIconURL:      f.StringPtr(FieldCategoryIconURL),
		PaymentChannel:       f.String(FieldPaymentChannel),
		Pending:              f.Bool(FieldPending),
		PendingTransactionID: f.StringPtr(FieldPendingTransactionID),
		LogoURL:              f.StringPtr(FieldLogoURL),
		Website:              f.StringPtr(FieldWebsite),
		ISOCurrencyCode:      f.StringPtr(FieldISOCurrencyCode),
		UserCategory:         f.StringPtr(FieldUserCategory),
		Tags:                 f.Strings(FieldTags),
		Notes:                f.String(FieldNotes),
	}, nil
}

package account

import (
	"fmt"
	"time"

	"budgetmint/internal/infrastructure/store"
)

// Stored field names.
const (
	FieldUserID            = "userId"
	FieldItemID            = "itemId"
	FieldPlaidAccountID    = "plaidAccountId"
	FieldName              = "name"
	FieldOfficialName      = "officialName"
	FieldType              = "type"
	FieldSubtype           = "subtype"
	FieldBalanceCurrent    = "balanceCurrent"
	FieldBalanceAvailable  = "balanceAvailable"
	FieldISOCurrencyCode   = "isoCurrencyCode"
	FieldMask              = "mask"
	FieldInstitutionID     = "institutionId"
	FieldLastBalanceUpdate = "lastBalanceUpdate"
)

// Fields is the full stored form of the account.
func (a *Account) Fields() store.Fields {
	return store.Fields{
		FieldUserID:            a.UserID,
		FieldItemID:            a.ItemID,
		FieldPlaidAccountID:    a.AccountID,
		FieldName:              a.Name,
		FieldOfficialName:      store.StringPtrValue(a.OfficialName),
		FieldType:              a.Type,
		FieldSubtype:           store.StringPtrValue(a.Subtype),
		FieldBalanceCurrent:    store.NullDecimalValue(a.BalanceCurrent),
		FieldBalanceAvailable:  store.NullDecimalValue(a.BalanceAvailable),
		FieldISOCurrencyCode:   store.StringPtrValue(a.ISOCurrencyCode),
		FieldMask:              store.StringPtrValue(a.Mask),
		FieldInstitutionID:     store.StringPtrValue(a.InstitutionID),
		FieldLastBalanceUpdate: store.TimePtrValue(a.LastBalanceUpdate),
	}
}

// BalanceFields is the field set written by a balance refresh.
func (a *Account) BalanceFields(at time.Time) store.Fields {
	return store.Fields{
		FieldBalanceCurrent:    store.NullDecimalValue(a.BalanceCurrent),
		FieldBalanceAvailable:  store.NullDecimalValue(a.BalanceAvailable),
		FieldLastBalanceUpdate: at,
	}
}

// FromDocument decodes a stored account.
func FromDocument(doc *store.Document) (*Account, error) {
	f := doc.Fields
	current, err := f.Decimal(FieldBalanceCurrent)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", doc.ID, err)
	}
	available, err := f.Decimal(FieldBalanceAvailable)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", doc.ID, err)
	}
	updated, err := f.Time(FieldLastBalanceUpdate)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", doc.ID, err)
	}

	return &Account{
		AccountID:         doc.ID,
		ItemID:            f.String(FieldItemID),
		UserID:            f.String(FieldUserID),
		Name:              f.String(FieldName),
		OfficialName:      f.StringPtr(FieldOfficialName),
		Type:              f.String(FieldType),
		Subtype:           f.StringPtr(FieldSubtype),
		BalanceCurrent:    current,
		BalanceAvailable:  available,
		ISOCurrencyCode:   f.StringPtr(FieldISOCurrencyCode),
		Mask:              f.StringPtr(FieldMask),
		InstitutionID:     f.StringPtr(FieldInstitutionID),
		LastBalanceUpdate: updated,
	}, nil
}

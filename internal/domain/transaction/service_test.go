package transaction

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*Transaction, error)
	ListByUserIDFunc  func(ctx context.Context, userID, accountID string) ([]*Transaction, error)
	UpdateOverlayFunc func(ctx context.Context, id string, patch OverlayPatch) error
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrTransactionNotFound
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID, accountID string) ([]*Transaction, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, accountID)
	}
	return nil, nil
}

func (m *MockRepository) UpdateOverlay(ctx context.Context, id string, patch OverlayPatch) error {
	if m.UpdateOverlayFunc != nil {
		return m.UpdateOverlayFunc(ctx, id, patch)
	}
	return nil
}

func TestService_UpdateOverlay(t *testing.T) {
	var applied *OverlayPatch
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*Transaction, error) {
			if id != "t1" {
				return nil, ErrTransactionNotFound
			}
			return &Transaction{TransactionID: "t1", UserID: "owner", Category: strPtr("FOOD_AND_DRINK"), Tags: []string{}}, nil
		},
		UpdateOverlayFunc: func(ctx context.Context, id string, patch OverlayPatch) error {
			applied = &patch
			return nil
		},
	}
	svc := NewService(repo)

	tags := []string{"fun"}
	txn, err := svc.UpdateOverlay(context.Background(), "owner", "t1", OverlayPatch{
		UserCategory: strPtr("Coffee"),
		Tags:         &tags,
		Notes:        strPtr("met Bob"),
	})
	if err != nil {
		t.Fatalf("UpdateOverlay() error = %v", err)
	}
	if applied == nil {
		t.Fatal("repository UpdateOverlay was not called")
	}
	if txn.DisplayCategory() != "Coffee" || txn.Notes != "met Bob" || len(txn.Tags) != 1 {
		t.Errorf("UpdateOverlay() returned %+v", txn)
	}
}

func TestService_UpdateOverlayErrors(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*Transaction, error) {
			if id == "t1" {
				return &Transaction{TransactionID: "t1", UserID: "owner"}, nil
			}
			return nil, ErrTransactionNotFound
		},
		UpdateOverlayFunc: func(ctx context.Context, id string, patch OverlayPatch) error {
			t.Errorf("UpdateOverlay must not be called")
			return nil
		},
	}
	svc := NewService(repo)
	notes := OverlayPatch{Notes: strPtr("x")}

	tests := []struct {
		name    string
		userID  string
		txnID   string
		patch   OverlayPatch
		wantErr error
	}{
		{"other user", "intruder", "t1", notes, ErrForbidden},
		{"missing", "owner", "t2", notes, ErrTransactionNotFound},
		{"empty patch", "owner", "t1", OverlayPatch{}, ErrInvalidInput},
		{"missing user", "", "t1", notes, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateOverlay(context.Background(), tt.userID, tt.txnID, tt.patch)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateOverlay() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_ListTransactionsNewestFirst(t *testing.T) {
	repo := &MockRepository{
		ListByUserIDFunc: func(ctx context.Context, userID, accountID string) ([]*Transaction, error) {
			if accountID != "a1" {
				t.Errorf("accountID = %q, want a1", accountID)
			}
			return []*Transaction{
				{TransactionID: "old", Date: civil.Date{Year: 2024, Month: 1, Day: 1}},
				{TransactionID: "new", Date: civil.Date{Year: 2024, Month: 2, Day: 1}},
				{TransactionID: "mid", Date: civil.Date{Year: 2024, Month: 1, Day: 15}},
			}, nil
		},
	}
	svc := NewService(repo)

	txns, err := svc.ListTransactions(context.Background(), "u1", "a1")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	got := []string{txns[0].TransactionID, txns[1].TransactionID, txns[2].TransactionID}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestService_Summarize(t *testing.T) {
	repo := &MockRepository{
		ListByUserIDFunc: func(ctx context.Context, userID, accountID string) ([]*Transaction, error) {
			return []*Transaction{
				{TransactionID: "t1", Amount: amount("42.50"), Category: strPtr("FOOD_AND_DRINK")},
				{TransactionID: "t2", Amount: amount("-10.00"), Category: strPtr("INCOME")},
			}, nil
		},
	}
	svc := NewService(repo)

	s, err := svc.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !s.NetCashFlow.Equal(amount("-32.50")) {
		t.Errorf("NetCashFlow = %s, want -32.50", s.NetCashFlow)
	}
	if s.Count != 2 || !s.SpendingByCategory["FOOD_AND_DRINK"].Equal(amount("42.50")) {
		t.Errorf("Summarize() = %+v", s)
	}
}

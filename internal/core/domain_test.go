package core

import (
	"errors"
	"testing"
)

func TestAccountValidate(t *testing.T) {
	valid := Account{Name: "Wallet", Type: Cash, Currency: "USD"}

	tests := []struct {
		name    string
		mutate  func(*Account)
		wantErr error
	}{
		{name: "valid account", mutate: func(*Account) {}},
		{name: "empty name", mutate: func(a *Account) { a.Name = "  " }, wantErr: ErrEmptyName},
		{name: "bad type", mutate: func(a *Account) { a.Type = "savings" }, wantErr: ErrInvalidAccountType},
		{name: "empty currency", mutate: func(a *Account) { a.Currency = "" }, wantErr: ErrEmptyCurrency},
		{name: "negative initial balance", mutate: func(a *Account) { a.Balance = Money{Cents: -1} }, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := valid
			tt.mutate(&acc)
			err := acc.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Groceries", Type: Expense}).Validate(); err != nil {
		t.Errorf("valid category rejected: %v", err)
	}
	if err := (Category{Name: "", Type: Expense}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name: got %v", err)
	}
	if err := (Category{Name: "Misc", Type: "transfer"}).Validate(); !errors.Is(err, ErrInvalidFlowType) {
		t.Errorf("bad type: got %v", err)
	}
}

func TestCategoryGlobal(t *testing.T) {
	owner := int64(7)
	if (Category{OwnerID: &owner}).Global() {
		t.Error("personal category reported global")
	}
	if !(Category{}).Global() {
		t.Error("ownerless category should be global")
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{CategoryID: 1, AccountID: 2, Type: Income, Amount: Money{Cents: 100}}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid transaction rejected: %v", err)
	}

	bad := valid
	bad.Amount = Money{Cents: 0}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: got %v", err)
	}

	bad = valid
	bad.Type = "refund"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidFlowType) {
		t.Errorf("bad flow type: got %v", err)
	}
}

package core

import (
	"errors"
	"testing"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		flow        FlowType
		amount      int64
		wantBalance int64
		wantErr     error
	}{
		{name: "income always succeeds", balance: 0, flow: Income, amount: 1500, wantBalance: 1500},
		{name: "expense within balance", balance: 10000, flow: Expense, amount: 2500, wantBalance: 7500},
		{name: "expense to exactly zero", balance: 2500, flow: Expense, amount: 2500, wantBalance: 0},
		{name: "expense over balance rejected", balance: 10000, flow: Expense, amount: 15000, wantBalance: 10000, wantErr: ErrInsufficientBalance},
		{name: "expense on empty account rejected", balance: 0, flow: Expense, amount: 1, wantBalance: 0, wantErr: ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: Money{Cents: tt.balance}}
			err := acc.Apply(tt.flow, Money{Cents: tt.amount})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if acc.Balance.Cents != tt.wantBalance {
				t.Errorf("balance = %d, want %d", acc.Balance.Cents, tt.wantBalance)
			}
		})
	}
}

func TestReverse(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		flow        FlowType
		amount      int64
		wantBalance int64
	}{
		{name: "income reversal subtracts", balance: 5000, flow: Income, amount: 2000, wantBalance: 3000},
		{name: "expense reversal restores", balance: 3000, flow: Expense, amount: 2000, wantBalance: 5000},
		{name: "income reversal may go negative", balance: 1000, flow: Income, amount: 2000, wantBalance: -1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: Money{Cents: tt.balance}}
			acc.Reverse(tt.flow, Money{Cents: tt.amount})
			if acc.Balance.Cents != tt.wantBalance {
				t.Errorf("balance = %d, want %d", acc.Balance.Cents, tt.wantBalance)
			}
		})
	}
}

func TestApplyReverseRoundTrip(t *testing.T) {
	flows := []FlowType{Income, Expense}
	for _, flow := range flows {
		acc := &Account{Balance: Money{Cents: 12345}}
		amount := Money{Cents: 678}
		if err := acc.Apply(flow, amount); err != nil {
			t.Fatalf("Apply(%s) failed: %v", flow, err)
		}
		acc.Reverse(flow, amount)
		if acc.Balance.Cents != 12345 {
			t.Errorf("%s round trip: balance = %d, want 12345", flow, acc.Balance.Cents)
		}
	}
}

func TestDelta(t *testing.T) {
	m := Money{Cents: 250}
	if got := Income.Delta(m); got != 250 {
		t.Errorf("income delta = %d, want 250", got)
	}
	if got := Expense.Delta(m); got != -250 {
		t.Errorf("expense delta = %d, want -250", got)
	}
}

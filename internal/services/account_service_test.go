package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/services"
)

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.accounts.Create(ctx, owner, "Checking", core.Cash, "EUR", core.Money{Cents: 100_00})
	require.NoError(t, err)
	assert.NotZero(t, acc.ID)
	assert.Equal(t, int64(100_00), acc.Balance.Cents)

	got, err := f.accounts.Get(ctx, owner, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc, got)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		accName  string
		accType  core.AccountType
		currency string
		balance  int64
		wantErr  error
	}{
		{"empty name", "", core.Cash, "EUR", 0, core.ErrEmptyName},
		{"bad type", "Checking", core.AccountType("savings"), "EUR", 0, core.ErrInvalidAccountType},
		{"empty currency", "Checking", core.Cash, "", 0, core.ErrEmptyCurrency},
		{"negative balance", "Checking", core.Cash, "EUR", -1, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.accounts.Create(ctx, owner, tt.accName, tt.accType, tt.currency, core.Money{Cents: tt.balance})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateAccountDetailsKeepsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc := f.account(t, owner, "Checking", 100_00)

	updated, err := f.accounts.UpdateDetails(ctx, owner, acc.ID, "Main card", core.CreditCard, "USD")
	require.NoError(t, err)
	assert.Equal(t, "Main card", updated.Name)
	assert.Equal(t, core.CreditCard, updated.Type)
	assert.Equal(t, "USD", updated.Currency)
	assert.Equal(t, int64(100_00), updated.Balance.Cents)
}

func TestUpdateForeignAccountNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	theirs := f.account(t, 2, "Their checking", 0)

	_, err := f.accounts.UpdateDetails(ctx, owner, theirs.ID, "Hijacked", core.Cash, "EUR")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListAccountsScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.account(t, owner, "Checking", 0)
	f.account(t, owner, "Wallet", 0)
	f.account(t, 2, "Their checking", 0)

	list, err := f.accounts.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeleteAccountCascadesToTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc := f.account(t, owner, "Checking", 100_00)
	keep := f.account(t, owner, "Wallet", 100_00)
	cat := f.category(t, owner, "Groceries", core.Expense)

	txn, err := f.ledger.CreateTransaction(ctx, owner, services.CreateTransactionInput{
		CategoryID: cat.ID,
		Type:       core.Expense,
		Amount:     core.Money{Cents: 10_00},
		AccountID:  acc.ID,
	})
	require.NoError(t, err)
	kept, err := f.ledger.CreateTransaction(ctx, owner, services.CreateTransactionInput{
		CategoryID: cat.ID,
		Type:       core.Expense,
		Amount:     core.Money{Cents: 10_00},
		AccountID:  keep.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.accounts.Delete(ctx, owner, acc.ID))

	_, err = f.accounts.Get(ctx, owner, acc.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.ledger.GetTransaction(ctx, owner, txn.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.ledger.GetTransaction(ctx, owner, kept.ID)
	assert.NoError(t, err)
}

func TestDeleteForeignAccountNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	theirs := f.account(t, 2, "Their checking", 0)

	err := f.accounts.Delete(ctx, owner, theirs.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

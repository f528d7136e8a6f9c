package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedAccount(t *testing.T, repo *SQLiteRepository, ownerID int64, name string, cents int64) core.Account {
	t.Helper()
	acc := core.Account{
		OwnerID:  ownerID,
		Name:     name,
		Type:     core.Cash,
		Currency: "EUR",
		Balance:  core.Money{Cents: cents},
	}
	require.NoError(t, repo.CreateAccount(context.Background(), &acc))
	require.NotZero(t, acc.ID)
	return acc
}

func TestLockAccountsDeduplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acc := seedAccount(t, repo, 1, "Checking", 100)

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	accounts, err := tx.LockAccounts(ctx, 1, acc.ID, acc.ID, acc.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, acc.ID, accounts[acc.ID].ID)
}

func TestLockAccountsForeignOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acc := seedAccount(t, repo, 1, "Checking", 100)

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.LockAccounts(ctx, 2, acc.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRollbackDiscardsBalanceWrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acc := seedAccount(t, repo, 1, "Checking", 100)

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)

	accounts, err := tx.LockAccounts(ctx, 1, acc.ID)
	require.NoError(t, err)
	locked := accounts[acc.ID]
	locked.Balance.Cents = 999
	require.NoError(t, tx.SaveBalances(ctx, locked))
	require.NoError(t, tx.Rollback())

	got, err := repo.GetAccount(ctx, 1, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Balance.Cents)
}

func TestRollbackAfterCommitIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
}

func TestHideCategoryIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat := core.Category{Name: "Utilities", Type: core.Expense}
	require.NoError(t, repo.CreateCategory(ctx, &cat))

	require.NoError(t, repo.HideCategory(ctx, 1, cat.ID))
	require.NoError(t, repo.HideCategory(ctx, 1, cat.ID))

	list, err := repo.ListCategories(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHideUnknownCategory(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.HideCategory(context.Background(), 1, 12345)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMonthRangeBoundaries(t *testing.T) {
	tests := []struct {
		year, month int
		wantStart   string
		wantEnd     string
	}{
		{2026, 3, "2026-03-01", "2026-04-01"},
		{2026, 12, "2026-12-01", "2027-01-01"},
		{2026, 1, "2026-01-01", "2026-02-01"},
		{2024, 2, "2024-02-01", "2024-03-01"},
	}
	for _, tt := range tests {
		start, end := monthRange(tt.year, tt.month)
		assert.Equal(t, tt.wantStart, start.Format(dateLayout))
		assert.Equal(t, tt.wantEnd, end.Format(dateLayout))
	}
}

func TestDedupeSorted(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, dedupeSorted([]int64{3, 1, 2, 3, 1}))
	assert.Equal(t, []int64{7}, dedupeSorted([]int64{7, 7}))
	assert.Empty(t, dedupeSorted(nil))
}

func TestTransactionDateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acc := seedAccount(t, repo, 1, "Checking", 100_00)
	cat := core.Category{Name: "Groceries", Type: core.Expense}
	require.NoError(t, repo.CreateCategory(ctx, &cat))

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	txn := core.Transaction{
		OwnerID:    1,
		CategoryID: cat.ID,
		AccountID:  acc.ID,
		Type:       core.Expense,
		Amount:     core.Money{Cents: 10_00},
		Date:       core.NewDate(2026, 2, 29),
	}
	require.NoError(t, tx.InsertTransaction(ctx, &txn))
	require.NoError(t, tx.Commit())

	got, err := repo.GetTransaction(ctx, 1, txn.ID)
	require.NoError(t, err)
	// 2026 is not a leap year: time.Date normalizes Feb 29 to Mar 1.
	assert.Equal(t, 2026, got.Date.Year())
	assert.Equal(t, 3, got.Date.Month())
	assert.Equal(t, 1, got.Date.Day())
}

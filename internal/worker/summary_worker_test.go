package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/amqp"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/services"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/storage"
)

type fakeWriter struct {
	calls []core.MonthlySummary
	err   error
}

func (w *fakeWriter) WriteMonthlySummary(ctx context.Context, ownerID int64, summary core.MonthlySummary) error {
	w.calls = append(w.calls, summary)
	return w.err
}

func newSeededStore(t *testing.T) services.Store {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	acc := core.Account{OwnerID: 1, Name: "Checking", Type: core.Cash, Currency: "EUR", Balance: core.Money{Cents: 1_000_00}}
	require.NoError(t, store.CreateAccount(ctx, &acc))
	cat := core.Category{Name: "Salary", Type: core.Income}
	require.NoError(t, store.CreateCategory(ctx, &cat))

	ledger := services.NewLedgerService(store, nil, nil)
	_, err = ledger.CreateTransaction(ctx, 1, services.CreateTransactionInput{
		CategoryID: cat.ID,
		Type:       core.Income,
		Amount:     core.Money{Cents: 500_00},
		AccountID:  acc.ID,
		Date:       core.NewDate(2026, 3, 1),
	})
	require.NoError(t, err)
	return store
}

func TestHandleEventExportsSummary(t *testing.T) {
	store := newSeededStore(t)
	writer := &fakeWriter{}
	w := NewSummaryWorker(store, writer)

	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{
		Op:      services.OpCreated,
		OwnerID: 1,
		Year:    2026,
		Month:   3,
	})
	require.NoError(t, err)

	require.Len(t, writer.calls, 1)
	assert.Equal(t, int64(500_00), writer.calls[0].TotalIncome.Cents)
	assert.Equal(t, 2026, writer.calls[0].Year)
	assert.Equal(t, 3, writer.calls[0].Month)
}

func TestHandleEventNilWriterSkips(t *testing.T) {
	store := newSeededStore(t)
	w := NewSummaryWorker(store, nil)

	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{
		OwnerID: 1,
		Year:    2026,
		Month:   3,
	})
	assert.NoError(t, err)
}

func TestHandleEventWriterFailure(t *testing.T) {
	store := newSeededStore(t)
	writer := &fakeWriter{err: errors.New("sheet unavailable")}
	w := NewSummaryWorker(store, writer)

	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{
		OwnerID: 1,
		Year:    2026,
		Month:   3,
	})
	assert.Error(t, err)
}

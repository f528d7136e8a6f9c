package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// LedgerService is the transaction lifecycle coordinator. Every mutation
// reverses and reapplies balance effects inside a single storage
// transaction, so a failure at any step leaves durable state exactly as it
// was before the call.
type LedgerService struct {
	store   Store
	events  EventPublisher    // optional
	reports ReportInvalidator // optional
}

func NewLedgerService(store Store, events EventPublisher, reports ReportInvalidator) *LedgerService {
	return &LedgerService{
		store:   store,
		events:  events,
		reports: reports,
	}
}

// CreateTransactionInput describes a transaction to be recorded. A zero
// Date means today; the date is immutable afterwards.
type CreateTransactionInput struct {
	CategoryID int64
	Type       core.FlowType
	Amount     core.Money
	AccountID  int64
	Date       core.Date
}

// CreateTransaction validates the category/type agreement, applies the
// balance effect and persists transaction and account atomically. On
// insufficient balance nothing is written.
func (s *LedgerService) CreateTransaction(ctx context.Context, ownerID int64, in CreateTransactionInput) (core.Transaction, error) {
	txn := core.Transaction{
		OwnerID:    ownerID,
		CategoryID: in.CategoryID,
		Type:       in.Type,
		Amount:     in.Amount,
		AccountID:  in.AccountID,
		Date:       in.Date,
	}
	if txn.Date.IsZero() {
		txn.Date = core.Today()
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	cat, err := tx.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return core.Transaction{}, err
	}
	if !s.categoryVisible(cat, ownerID) {
		return core.Transaction{}, core.ErrNotFound
	}
	if cat.Type != in.Type {
		return core.Transaction{}, core.ErrCategoryTypeMismatch
	}

	accounts, err := tx.LockAccounts(ctx, ownerID, in.AccountID)
	if err != nil {
		return core.Transaction{}, err
	}
	acc := accounts[in.AccountID]

	if err := acc.Apply(in.Type, in.Amount); err != nil {
		return core.Transaction{}, err
	}

	if err := tx.InsertTransaction(ctx, &txn); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := tx.SaveBalances(ctx, acc); err != nil {
		return core.Transaction{}, fmt.Errorf("save balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	s.afterMutation(ctx, OpCreated, txn)
	return txn, nil
}

// UpdateTransaction applies a partial update: the old effect is reversed on
// the old account and the effective new values are applied, possibly
// against a different account. Both balances and the transaction row are
// written in one storage transaction; if the new apply fails the reversal
// is discarded with the rollback and no state changes.
func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID, transactionID int64, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.Amount != nil {
		if err := patch.Amount.Validate(); err != nil {
			return core.Transaction{}, err
		}
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return core.Transaction{}, core.ErrInvalidFlowType
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := tx.GetTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return core.Transaction{}, err
	}

	updated := old
	if patch.CategoryID != nil {
		cat, err := tx.GetCategory(ctx, *patch.CategoryID)
		if err != nil {
			return core.Transaction{}, err
		}
		if !s.categoryVisible(cat, ownerID) {
			return core.Transaction{}, core.ErrNotFound
		}
		// Category type agreement is checked at create time only. An update
		// may leave type and category mismatched; callers relying on the
		// pairing re-submit both fields.
		updated.CategoryID = *patch.CategoryID
	}
	if patch.Type != nil {
		updated.Type = *patch.Type
	}
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}
	if patch.AccountID != nil {
		updated.AccountID = *patch.AccountID
	}

	accounts, err := tx.LockAccounts(ctx, ownerID, old.AccountID, updated.AccountID)
	if err != nil {
		return core.Transaction{}, err
	}
	oldAcc := accounts[old.AccountID]
	newAcc := accounts[updated.AccountID]

	oldAcc.Reverse(old.Type, old.Amount)
	if err := newAcc.Apply(updated.Type, updated.Amount); err != nil {
		return core.Transaction{}, err
	}

	if err := tx.UpdateTransaction(ctx, updated); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	// oldAcc and newAcc alias the same struct when the account did not
	// change, so the combined balance is written once.
	dirty := []*core.Account{oldAcc}
	if newAcc != oldAcc {
		dirty = append(dirty, newAcc)
	}
	if err := tx.SaveBalances(ctx, dirty...); err != nil {
		return core.Transaction{}, fmt.Errorf("save balances: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	s.afterMutation(ctx, OpUpdated, updated)
	return updated, nil
}

// DeleteTransaction reverses the transaction's effect and removes the
// record, atomically.
func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, transactionID int64) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	txn, err := tx.GetTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return err
	}

	accounts, err := tx.LockAccounts(ctx, ownerID, txn.AccountID)
	if err != nil {
		return err
	}
	acc := accounts[txn.AccountID]
	acc.Reverse(txn.Type, txn.Amount)

	if err := tx.SaveBalances(ctx, acc); err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	if err := tx.DeleteTransaction(ctx, transactionID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.afterMutation(ctx, OpDeleted, txn)
	return nil
}

// GetTransaction loads a single transaction owned by the requester.
func (s *LedgerService) GetTransaction(ctx context.Context, ownerID, transactionID int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, ownerID, transactionID)
}

// ListTransactions returns the owner's transactions, optionally narrowed by
// date range, category or account.
func (s *LedgerService) ListTransactions(ctx context.Context, ownerID int64, filter TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, ownerID, filter)
}

func (s *LedgerService) categoryVisible(cat core.Category, ownerID int64) bool {
	return cat.Global() || *cat.OwnerID == ownerID
}

// afterMutation runs post-commit side effects: event publication and report
// cache invalidation. Neither may fail the already committed operation.
func (s *LedgerService) afterMutation(ctx context.Context, op string, txn core.Transaction) {
	if s.reports != nil {
		s.reports.InvalidateMonth(txn.OwnerID, txn.Date.Year(), txn.Date.Month())
	}
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, op, txn); err != nil {
		slog.WarnContext(ctx, "Failed to publish transaction event",
			"op", op,
			"transaction_id", txn.ID,
			"account_id", txn.AccountID,
			"error", err)
	}
}

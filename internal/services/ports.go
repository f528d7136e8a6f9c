// Package services orchestrates the balance-consistency rules of the
// tracker: the transaction lifecycle coordinator, category visibility,
// account management and monthly reporting. All durable state flows through
// the Store port, implemented by internal/storage for SQLite and Postgres.
package services

import (
	"context"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

// TransactionFilter narrows ListTransactions. Nil fields are ignored.
type TransactionFilter struct {
	From       *core.Date
	To         *core.Date
	CategoryID *int64
	AccountID  *int64
}

// Store is the persistence port. Single-entity reads and writes run on
// their own; every balance-affecting mutation goes through a Tx so that the
// account write and the transaction write land atomically.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	CreateAccount(ctx context.Context, acc *core.Account) error
	GetAccount(ctx context.Context, ownerID, accountID int64) (core.Account, error)
	ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error)
	// UpdateAccountDetails edits name, type and currency. It never touches
	// the balance.
	UpdateAccountDetails(ctx context.Context, ownerID, accountID int64, name string, accType core.AccountType, currency string) (core.Account, error)
	// DeleteAccount removes the account and cascades to its transactions.
	DeleteAccount(ctx context.Context, ownerID, accountID int64) error

	CreateCategory(ctx context.Context, cat *core.Category) error
	GetCategory(ctx context.Context, categoryID int64) (core.Category, error)
	// ListCategories returns the owner's categories plus global ones the
	// owner has not hidden.
	ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
	// DeleteCategory hard-deletes; referenced categories fail with
	// core.ErrCategoryInUse.
	DeleteCategory(ctx context.Context, categoryID int64) error
	// HideCategory records a per-user hide marker. Hiding an already hidden
	// category is a no-op success.
	HideCategory(ctx context.Context, ownerID, categoryID int64) error

	GetTransaction(ctx context.Context, ownerID, transactionID int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID int64, filter TransactionFilter) ([]core.Transaction, error)

	MonthlySummary(ctx context.Context, ownerID int64, year, month int) (core.MonthlySummary, error)
	CategorySpending(ctx context.Context, ownerID int64, year, month int) (core.CategorySpending, error)

	Close() error
}

// Tx is one atomic unit of work. Rollback after Commit is a no-op, so
// callers can defer Rollback unconditionally.
type Tx interface {
	GetCategory(ctx context.Context, categoryID int64) (core.Category, error)
	GetTransaction(ctx context.Context, ownerID, transactionID int64) (core.Transaction, error)
	// LockAccounts loads the requested accounts for update, acquiring row
	// locks in ascending identifier order so concurrent cross-account moves
	// cannot deadlock. Duplicated ids are loaded once. A missing or
	// foreign-owned account fails with core.ErrNotFound.
	LockAccounts(ctx context.Context, ownerID int64, accountIDs ...int64) (map[int64]*core.Account, error)
	SaveBalances(ctx context.Context, accounts ...*core.Account) error
	InsertTransaction(ctx context.Context, txn *core.Transaction) error
	UpdateTransaction(ctx context.Context, txn core.Transaction) error
	DeleteTransaction(ctx context.Context, transactionID int64) error
	Commit() error
	Rollback() error
}

// EventPublisher announces committed transaction mutations. Publication is
// best-effort: a failed publish is logged, never surfaced to the caller.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, op string, txn core.Transaction) error
}

// ReportInvalidator drops cached reports whose underlying data changed:
// a single month after a transaction mutation, or every month of an owner
// after an account deletion cascaded away an unknown set of transactions.
type ReportInvalidator interface {
	InvalidateMonth(ownerID int64, year, month int)
	InvalidateOwner(ownerID int64)
}

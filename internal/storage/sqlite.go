package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/services"
)

// SQLiteRepository implements services.Store on an embedded SQLite file.
// The write path runs on a single connection, so balance read-modify-write
// sequences are serialized without explicit row locks.
type SQLiteRepository struct {
	db *sql.DB
}

var _ services.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One connection keeps write transactions serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Begin(ctx context.Context) (services.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sqlite transaction: %w", err)
	}
	return &sqliteTx{tx: tx}, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, acc *core.Account) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (owner_id, name, account_type, currency, balance_cents)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		acc.OwnerID, acc.Name, string(acc.Type), acc.Currency, acc.Balance.Cents,
	).Scan(&acc.ID)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, ownerID, accountID int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, account_type, currency, balance_cents
		FROM accounts
		WHERE id = ? AND owner_id = ?`,
		accountID, ownerID)
	return scanAccount(row)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, account_type, currency, balance_cents
		FROM accounts
		WHERE owner_id = ?
		ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) UpdateAccountDetails(ctx context.Context, ownerID, accountID int64, name string, accType core.AccountType, currency string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET name = ?, account_type = ?, currency = ?
		WHERE id = ? AND owner_id = ?
		RETURNING id, owner_id, name, account_type, currency, balance_cents`,
		name, string(accType), currency, accountID, ownerID)
	return scanAccount(row)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, ownerID, accountID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND owner_id = ?`,
		accountID, ownerID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, cat *core.Category) error {
	var owner sql.NullInt64
	if cat.OwnerID != nil {
		owner = sql.NullInt64{Int64: *cat.OwnerID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (owner_id, name, category_type)
		VALUES (?, ?, ?)
		RETURNING id`,
		owner, cat.Name, string(cat.Type),
	).Scan(&cat.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrDuplicateCategory
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, categoryID int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, category_type
		FROM categories
		WHERE id = ?`,
		categoryID)
	return scanCategory(row)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, category_type
		FROM categories
		WHERE owner_id = ?
		   OR (owner_id IS NULL AND id NOT IN (
		       SELECT category_id FROM hidden_categories WHERE owner_id = ?))
		ORDER BY name`,
		ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, categoryID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, categoryID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return core.ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) HideCategory(ctx context.Context, ownerID, categoryID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO hidden_categories (owner_id, category_id)
		VALUES (?, ?)
		ON CONFLICT (owner_id, category_id) DO NOTHING`,
		ownerID, categoryID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return core.ErrNotFound
		}
		return fmt.Errorf("hide category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, transactionID int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on
		FROM transactions
		WHERE id = ? AND owner_id = ?`,
		transactionID, ownerID)
	return scanTransaction(row)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64, filter services.TransactionFilter) ([]core.Transaction, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on
		FROM transactions
		WHERE owner_id = ?`)
	args := []any{ownerID}

	if filter.From != nil {
		query.WriteString(" AND occurred_on >= ?")
		args = append(args, filter.From.Format(dateLayout))
	}
	if filter.To != nil {
		query.WriteString(" AND occurred_on <= ?")
		args = append(args, filter.To.Format(dateLayout))
	}
	if filter.CategoryID != nil {
		query.WriteString(" AND category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.AccountID != nil {
		query.WriteString(" AND account_id = ?")
		args = append(args, *filter.AccountID)
	}
	query.WriteString(" ORDER BY occurred_on DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *SQLiteRepository) MonthlySummary(ctx context.Context, ownerID int64, year, month int) (core.MonthlySummary, error) {
	start, end := monthRange(year, month)
	summary := core.MonthlySummary{Year: year, Month: month}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN transaction_type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN transaction_type = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE owner_id = ? AND occurred_on >= ? AND occurred_on < ?`,
		ownerID, start.Format(dateLayout), end.Format(dateLayout),
	).Scan(&summary.TotalIncome.Cents, &summary.TotalExpense.Cents)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	summary.Balance.Cents = summary.TotalIncome.Cents - summary.TotalExpense.Cents
	return summary, nil
}

func (r *SQLiteRepository) CategorySpending(ctx context.Context, ownerID int64, year, month int) (core.CategorySpending, error) {
	start, end := monthRange(year, month)
	spending := core.CategorySpending{Year: year, Month: month}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, SUM(t.amount_cents)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.owner_id = ? AND t.transaction_type = 'expense'
		  AND t.occurred_on >= ? AND t.occurred_on < ?
		GROUP BY c.name
		ORDER BY SUM(t.amount_cents) DESC`,
		ownerID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return core.CategorySpending{}, fmt.Errorf("category spending: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item core.CategorySpend
		if err := rows.Scan(&item.Category, &item.TotalSpent.Cents); err != nil {
			return core.CategorySpending{}, fmt.Errorf("scan category spending: %w", err)
		}
		spending.TotalExpense.Cents += item.TotalSpent.Cents
		spending.Categories = append(spending.Categories, item)
	}
	if err := rows.Err(); err != nil {
		return core.CategorySpending{}, err
	}

	for i := range spending.Categories {
		spending.Categories[i].Percentage = core.SpendingPercentage(spending.Categories[i].TotalSpent, spending.TotalExpense)
	}
	return spending, nil
}

// sqliteTx is one unit of work. SQLite serializes writers, so LockAccounts
// only loads rows; the transaction itself provides the isolation.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (t *sqliteTx) GetCategory(ctx context.Context, categoryID int64) (core.Category, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, owner_id, name, category_type
		FROM categories
		WHERE id = ?`,
		categoryID)
	return scanCategory(row)
}

func (t *sqliteTx) GetTransaction(ctx context.Context, ownerID, transactionID int64) (core.Transaction, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on
		FROM transactions
		WHERE id = ? AND owner_id = ?`,
		transactionID, ownerID)
	return scanTransaction(row)
}

func (t *sqliteTx) LockAccounts(ctx context.Context, ownerID int64, accountIDs ...int64) (map[int64]*core.Account, error) {
	accounts := make(map[int64]*core.Account, len(accountIDs))
	for _, id := range dedupeSorted(accountIDs) {
		row := t.tx.QueryRowContext(ctx, `
			SELECT id, owner_id, name, account_type, currency, balance_cents
			FROM accounts
			WHERE id = ? AND owner_id = ?`,
			id, ownerID)
		acc, err := scanAccount(row)
		if err != nil {
			return nil, err
		}
		accounts[id] = &acc
	}
	return accounts, nil
}

func (t *sqliteTx) SaveBalances(ctx context.Context, accounts ...*core.Account) error {
	for _, acc := range accounts {
		res, err := t.tx.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = ? WHERE id = ?`,
			acc.Balance.Cents, acc.ID)
		if err != nil {
			return fmt.Errorf("save balance for account %d: %w", acc.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}
	}
	return nil
}

func (t *sqliteTx) InsertTransaction(ctx context.Context, txn *core.Transaction) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO transactions (owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		txn.OwnerID, txn.CategoryID, txn.AccountID, string(txn.Type), txn.Amount.Cents, txn.Date.Format(dateLayout),
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (t *sqliteTx) UpdateTransaction(ctx context.Context, txn core.Transaction) error {
	// occurred_on is immutable after creation.
	res, err := t.tx.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, account_id = ?, transaction_type = ?, amount_cents = ?
		WHERE id = ?`,
		txn.CategoryID, txn.AccountID, string(txn.Type), txn.Amount.Cents, txn.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (t *sqliteTx) DeleteTransaction(ctx context.Context, transactionID int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var acc core.Account
	var accType string
	err := row.Scan(&acc.ID, &acc.OwnerID, &acc.Name, &accType, &acc.Currency, &acc.Balance.Cents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, core.ErrNotFound
		}
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	acc.Type = core.AccountType(accType)
	return acc, nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var cat core.Category
	var owner sql.NullInt64
	var catType string
	err := row.Scan(&cat.ID, &owner, &cat.Name, &catType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	if owner.Valid {
		cat.OwnerID = &owner.Int64
	}
	cat.Type = core.FlowType(catType)
	return cat, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var txn core.Transaction
	var txnType, occurredOn string
	err := row.Scan(&txn.ID, &txn.OwnerID, &txn.CategoryID, &txn.AccountID, &txnType, &txn.Amount.Cents, &occurredOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	txn.Type = core.FlowType(txnType)
	date, err := time.Parse(dateLayout, occurredOn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", occurredOn, err)
	}
	txn.Date = core.Date{Time: date}
	return txn, nil
}

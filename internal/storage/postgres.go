package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/services"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepository implements services.Store on Postgres. Per-account
// serialization comes from SELECT ... FOR UPDATE row locks acquired in
// ascending id order.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ services.Store = (*PostgresRepository)(nil)

func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Begin(ctx context.Context) (services.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin postgres transaction: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, acc *core.Account) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (owner_id, name, account_type, currency, balance_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		acc.OwnerID, acc.Name, string(acc.Type), acc.Currency, acc.Balance.Cents,
	).Scan(&acc.ID)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAccount(ctx context.Context, ownerID, accountID int64) (core.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, account_type, currency, balance_cents
		FROM accounts
		WHERE id = $1 AND owner_id = $2`,
		accountID, ownerID)
	return scanPGAccount(row)
}

func (r *PostgresRepository) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, account_type, currency, balance_cents
		FROM accounts
		WHERE owner_id = $1
		ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		acc, err := scanPGAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *PostgresRepository) UpdateAccountDetails(ctx context.Context, ownerID, accountID int64, name string, accType core.AccountType, currency string) (core.Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET name = $1, account_type = $2, currency = $3
		WHERE id = $4 AND owner_id = $5
		RETURNING id, owner_id, name, account_type, currency, balance_cents`,
		name, string(accType), currency, accountID, ownerID)
	return scanPGAccount(row)
}

func (r *PostgresRepository) DeleteAccount(ctx context.Context, ownerID, accountID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND owner_id = $2`,
		accountID, ownerID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, cat *core.Category) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (owner_id, name, category_type)
		VALUES ($1, $2, $3)
		RETURNING id`,
		cat.OwnerID, cat.Name, string(cat.Type),
	).Scan(&cat.ID)
	if err != nil {
		if isPGError(err, pgUniqueViolation) {
			return core.ErrDuplicateCategory
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetCategory(ctx context.Context, categoryID int64) (core.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, category_type
		FROM categories
		WHERE id = $1`,
		categoryID)
	return scanPGCategory(row)
}

func (r *PostgresRepository) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, category_type
		FROM categories
		WHERE owner_id = $1
		   OR (owner_id IS NULL AND id NOT IN (
		       SELECT category_id FROM hidden_categories WHERE owner_id = $1))
		ORDER BY name`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		cat, err := scanPGCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, categoryID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		if isPGError(err, pgForeignKeyViolation) {
			return core.ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) HideCategory(ctx context.Context, ownerID, categoryID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hidden_categories (owner_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, category_id) DO NOTHING`,
		ownerID, categoryID)
	if err != nil {
		if isPGError(err, pgForeignKeyViolation) {
			return core.ErrNotFound
		}
		return fmt.Errorf("hide category: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, ownerID, transactionID int64) (core.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on
		FROM transactions
		WHERE id = $1 AND owner_id = $2`,
		transactionID, ownerID)
	return scanPGTransaction(row)
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, ownerID int64, filter services.TransactionFilter) ([]core.Transaction, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on
		FROM transactions
		WHERE owner_id = $1`)
	args := []any{ownerID}

	if filter.From != nil {
		args = append(args, filter.From.Time)
		fmt.Fprintf(&query, " AND occurred_on >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, filter.To.Time)
		fmt.Fprintf(&query, " AND occurred_on <= $%d", len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		fmt.Fprintf(&query, " AND category_id = $%d", len(args))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		fmt.Fprintf(&query, " AND account_id = $%d", len(args))
	}
	query.WriteString(" ORDER BY occurred_on DESC, id DESC")

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		txn, err := scanPGTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *PostgresRepository) MonthlySummary(ctx context.Context, ownerID int64, year, month int) (core.MonthlySummary, error) {
	start, end := monthRange(year, month)
	summary := core.MonthlySummary{Year: year, Month: month}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE transaction_type = 'income'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE transaction_type = 'expense'), 0)
		FROM transactions
		WHERE owner_id = $1 AND occurred_on >= $2 AND occurred_on < $3`,
		ownerID, start, end,
	).Scan(&summary.TotalIncome.Cents, &summary.TotalExpense.Cents)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	summary.Balance.Cents = summary.TotalIncome.Cents - summary.TotalExpense.Cents
	return summary, nil
}

func (r *PostgresRepository) CategorySpending(ctx context.Context, ownerID int64, year, month int) (core.CategorySpending, error) {
	start, end := monthRange(year, month)
	spending := core.CategorySpending{Year: year, Month: month}

	rows, err := r.pool.Query(ctx, `
		SELECT c.name, SUM(t.amount_cents)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.owner_id = $1 AND t.transaction_type = 'expense'
		  AND t.occurred_on >= $2 AND t.occurred_on < $3
		GROUP BY c.name
		ORDER BY SUM(t.amount_cents) DESC`,
		ownerID, start, end)
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

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *postgresTx) Rollback() error {
	err := t.tx.Rollback(context.Background())
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *postgresTx) GetCategory(ctx context.Context, categoryID int64) (core.Category, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, owner_id, name, category_type
		FROM categories
		WHERE id = $1`,
		categoryID)
	return scanPGCategory(row)
}

func (t *postgresTx) GetTransaction(ctx context.Context, ownerID, transactionID int64) (core.Transaction, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on
		FROM transactions
		WHERE id = $1 AND owner_id = $2`,
		transactionID, ownerID)
	return scanPGTransaction(row)
}

// LockAccounts acquires row locks in ascending id order; the ORDER BY
// determines the lock acquisition order inside Postgres.
func (t *postgresTx) LockAccounts(ctx context.Context, ownerID int64, accountIDs ...int64) (map[int64]*core.Account, error) {
	ids := dedupeSorted(accountIDs)

	rows, err := t.tx.Query(ctx, `
		SELECT id, owner_id, name, account_type, currency, balance_cents
		FROM accounts
		WHERE id = ANY($1) AND owner_id = $2
		ORDER BY id
		FOR UPDATE`,
		ids, ownerID)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[int64]*core.Account, len(ids))
	for rows.Next() {
		acc, err := scanPGAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts[acc.ID] = &acc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(accounts) != len(ids) {
		return nil, core.ErrNotFound
	}
	return accounts, nil
}

func (t *postgresTx) SaveBalances(ctx context.Context, accounts ...*core.Account) error {
	for _, acc := range accounts {
		tag, err := t.tx.Exec(ctx,
			`UPDATE accounts SET balance_cents = $1 WHERE id = $2`,
			acc.Balance.Cents, acc.ID)
		if err != nil {
			return fmt.Errorf("save balance for account %d: %w", acc.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return core.ErrNotFound
		}
	}
	return nil
}

func (t *postgresTx) InsertTransaction(ctx context.Context, txn *core.Transaction) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO transactions (owner_id, category_id, account_id, transaction_type, amount_cents, occurred_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		txn.OwnerID, txn.CategoryID, txn.AccountID, string(txn.Type), txn.Amount.Cents, txn.Date.Time,
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (t *postgresTx) UpdateTransaction(ctx context.Context, txn core.Transaction) error {
	// occurred_on is immutable after creation.
	tag, err := t.tx.Exec(ctx, `
		UPDATE transactions
		SET category_id = $1, account_id = $2, transaction_type = $3, amount_cents = $4
		WHERE id = $5`,
		txn.CategoryID, txn.AccountID, string(txn.Type), txn.Amount.Cents, txn.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (t *postgresTx) DeleteTransaction(ctx context.Context, transactionID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isPGError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func scanPGAccount(row pgx.Row) (core.Account, error) {
	var acc core.Account
	var accType string
	err := row.Scan(&acc.ID, &acc.OwnerID, &acc.Name, &accType, &acc.Currency, &acc.Balance.Cents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Account{}, core.ErrNotFound
		}
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	acc.Type = core.AccountType(accType)
	return acc, nil
}

func scanPGCategory(row pgx.Row) (core.Category, error) {
	var cat core.Category
	var catType string
	err := row.Scan(&cat.ID, &cat.OwnerID, &cat.Name, &catType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	cat.Type = core.FlowType(catType)
	return cat, nil
}

func scanPGTransaction(row pgx.Row) (core.Transaction, error) {
	var txn core.Transaction
	var txnType string
	var occurredOn time.Time
	err := row.Scan(&txn.ID, &txn.OwnerID, &txn.CategoryID, &txn.AccountID, &txnType, &txn.Amount.Cents, &occurredOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	txn.Type = core.FlowType(txnType)
	txn.Date = core.Date{Time: occurredOn.UTC()}
	return txn, nil
}

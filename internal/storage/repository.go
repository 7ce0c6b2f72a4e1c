// Package storage implements the ledger's persistent store on database/sql
// with interchangeable postgres and sqlite drivers.
//
// Every multi-step mutation (transaction add/delete) runs inside a single
// database transaction so the account balance and the transaction history
// can never be observed out of step: a failure after the balance write
// rolls the balance back together with the row write.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Sypoo1/finance/internal/core"
)

const (
	tableAccounts   = "accounts"
	tableCategories = "categories"
	tableExpenses   = "expenses"
	tableIncome     = "income"
)

type Repository struct {
	db *sql.DB
	d  dialect
}

// LedgerEntry describes one applied ledger mutation. Balance is the
// account balance after the mutation; Amount is always positive.
type LedgerEntry struct {
	ID        int64
	UserID    int64
	AccountID int64
	Kind      core.Kind
	Amount    int64
	Balance   int64
}

// NewPostgresRepository opens a pooled connection to postgres and applies
// migrations. The pool is capped at 30 connections.
func NewPostgresRepository(databaseURL string) (*Repository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(30)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations("postgres", databaseURL, postgresDialect{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("Postgres repository ready")
	return &Repository{db: db, d: postgresDialect{}}, nil
}

// NewSQLiteRepository opens (or creates) the sqlite database at dbPath and
// applies migrations. Foreign keys are enabled per connection via the DSN.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer; concurrent write transactions would fail with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations("sqlite", dsn, sqliteDialect{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite repository ready", "path", dbPath)
	return &Repository{db: db, d: sqliteDialect{}}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so lookups can run
// inside or outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// wrap maps driver errors onto the taxonomy: no rows becomes ErrNotFound,
// constraint violations become ErrConflict/ErrReferenced, anything else is
// an ErrStoreUnavailable that still carries the driver error.
func (r *Repository) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if mapped := r.d.mapConstraint(err); mapped != nil {
		return fmt.Errorf("%s: %w", op, mapped)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}

// ResolveAccount maps a user's account display name to its id.
func (r *Repository) ResolveAccount(ctx context.Context, userID int64, name string) (int64, error) {
	return r.resolve(ctx, r.db, tableAccounts, userID, name)
}

// ResolveCategory maps a user's category display name to its id.
func (r *Repository) ResolveCategory(ctx context.Context, userID int64, name string) (int64, error) {
	return r.resolve(ctx, r.db, tableCategories, userID, name)
}

// resolve is the identity resolver: exact (user, name) match, single row
// guaranteed by the UNIQUE(user_id, name) constraint. Read-only.
func (r *Repository) resolve(ctx context.Context, q querier, table string, userID int64, name string) (int64, error) {
	var id int64
	query := r.d.rebind("SELECT id FROM " + table + " WHERE user_id = ? AND name = ?")
	if err := q.QueryRowContext(ctx, query, userID, name).Scan(&id); err != nil {
		return 0, r.wrap("resolve "+table, err)
	}
	return id, nil
}

// applyDelta is the balance accumulator: read the stored balance, add the
// signed delta, persist. It must be called inside tx; the postgres dialect
// locks the account row until commit, closing the lost-update window.
func (r *Repository) applyDelta(ctx context.Context, tx *sql.Tx, accountID, delta int64) (int64, error) {
	var balance int64
	query := r.d.rebind("SELECT balance FROM "+tableAccounts+" WHERE id = ?") + r.d.forUpdate()
	if err := tx.QueryRowContext(ctx, query, accountID).Scan(&balance); err != nil {
		return 0, r.wrap("read balance", err)
	}

	balance += delta
	update := r.d.rebind("UPDATE " + tableAccounts + " SET balance = ? WHERE id = ?")
	if _, err := tx.ExecContext(ctx, update, balance, accountID); err != nil {
		return 0, r.wrap("write balance", err)
	}
	return balance, nil
}

func transactionTable(kind core.Kind) (string, error) {
	switch kind {
	case core.KindExpense:
		return tableExpenses, nil
	case core.KindIncome:
		return tableIncome, nil
	default:
		return "", core.ErrInvalidKind
	}
}

// AddTransaction records one expense or income row and applies its balance
// effect, all inside one store transaction. Name resolution happens first
// and is read-only, so an unresolved category or account aborts with no
// effect and ErrNotFound.
func (r *Repository) AddTransaction(ctx context.Context, kind core.Kind, userID, amount int64, categoryName, accountName string) (LedgerEntry, error) {
	var entry LedgerEntry
	if err := kind.Validate(); err != nil {
		return entry, err
	}
	if err := (core.Money{Cents: amount}).Validate(); err != nil {
		return entry, err
	}
	table, _ := transactionTable(kind)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entry, r.wrap("begin add "+string(kind), err)
	}
	defer tx.Rollback()

	categoryID, err := r.resolve(ctx, tx, tableCategories, userID, categoryName)
	if err != nil {
		return entry, err
	}
	accountID, err := r.resolve(ctx, tx, tableAccounts, userID, accountName)
	if err != nil {
		return entry, err
	}

	balance, err := r.applyDelta(ctx, tx, accountID, kind.Delta(amount))
	if err != nil {
		return entry, err
	}

	var id int64
	insert := r.d.rebind("INSERT INTO " + table + " (user_id, account_id, category_id, amount) VALUES (?, ?, ?, ?) RETURNING id")
	if err := tx.QueryRowContext(ctx, insert, userID, accountID, categoryID, amount).Scan(&id); err != nil {
		return entry, r.wrap("insert "+string(kind), err)
	}

	if err := tx.Commit(); err != nil {
		return entry, r.wrap("commit add "+string(kind), err)
	}

	return LedgerEntry{
		ID:        id,
		UserID:    userID,
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		Balance:   balance,
	}, nil
}

// DeleteTransaction removes a recorded expense or income row and reverses
// its balance effect, inside one store transaction.
func (r *Repository) DeleteTransaction(ctx context.Context, kind core.Kind, id int64) (LedgerEntry, error) {
	var entry LedgerEntry
	if err := kind.Validate(); err != nil {
		return entry, err
	}
	table, _ := transactionTable(kind)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entry, r.wrap("begin delete "+string(kind), err)
	}
	defer tx.Rollback()

	var userID, accountID, amount int64
	lookup := r.d.rebind("SELECT user_id, account_id, amount FROM " + table + " WHERE id = ?")
	if err := tx.QueryRowContext(ctx, lookup, id).Scan(&userID, &accountID, &amount); err != nil {
		return entry, r.wrap("lookup "+string(kind), err)
	}

	// Exact inverse of the original effect.
	balance, err := r.applyDelta(ctx, tx, accountID, -kind.Delta(amount))
	if err != nil {
		return entry, err
	}

	// The row can disappear between the lookup and here when another
	// connection deletes it first; committing anyway would apply the
	// reversal twice. requireRow aborts via the deferred Rollback.
	del := r.d.rebind("DELETE FROM " + table + " WHERE id = ?")
	res, err := tx.ExecContext(ctx, del, id)
	if err != nil {
		return entry, r.wrap("delete "+string(kind), err)
	}
	if err := r.requireRow("delete "+string(kind), res); err != nil {
		return entry, err
	}

	if err := tx.Commit(); err != nil {
		return entry, r.wrap("commit delete "+string(kind), err)
	}

	return LedgerEntry{
		ID:        id,
		UserID:    userID,
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		Balance:   balance,
	}, nil
}

// CreateAccount inserts a new account. A duplicate (user, name) fails with
// ErrConflict straight from the store constraint; there is no pre-check.
func (r *Repository) CreateAccount(ctx context.Context, userID int64, name string, balance int64) (core.Account, error) {
	acc := core.Account{UserID: userID, Name: name, Balance: core.Money{Cents: balance}}
	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}

	query := r.d.rebind("INSERT INTO " + tableAccounts + " (user_id, name, balance) VALUES (?, ?, ?) RETURNING id")
	if err := r.db.QueryRowContext(ctx, query, userID, name, balance).Scan(&acc.ID); err != nil {
		return core.Account{}, r.wrap("create account", err)
	}
	return acc, nil
}

// UpdateAccount overwrites an account's name and balance by id. The
// balance here is a direct overwrite, not a delta: it deliberately
// bypasses the accumulator as a manual-correction escape hatch, and must
// stay that way.
func (r *Repository) UpdateAccount(ctx context.Context, id int64, name string, balance int64) error {
	if err := (core.Account{Name: name}).Validate(); err != nil {
		return err
	}

	query := r.d.rebind("UPDATE " + tableAccounts + " SET name = ?, balance = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, name, balance, id)
	if err != nil {
		return r.wrap("update account", err)
	}
	return r.requireRow("update account", res)
}

// DeleteAccount removes an account by id. An account still referenced by
// expense or income rows is rejected with ErrReferenced by the foreign key.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	query := r.d.rebind("DELETE FROM " + tableAccounts + " WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.wrap("delete account", err)
	}
	return r.requireRow("delete account", res)
}

func (r *Repository) CreateCategory(ctx context.Context, userID int64, name, description string) (core.Category, error) {
	cat := core.Category{UserID: userID, Name: name, Description: description}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	query := r.d.rebind("INSERT INTO " + tableCategories + " (user_id, name, description) VALUES (?, ?, ?) RETURNING id")
	if err := r.db.QueryRowContext(ctx, query, userID, name, description).Scan(&cat.ID); err != nil {
		return core.Category{}, r.wrap("create category", err)
	}
	return cat, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id int64, name, description string) error {
	if err := (core.Category{Name: name}).Validate(); err != nil {
		return err
	}

	query := r.d.rebind("UPDATE " + tableCategories + " SET name = ?, description = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, name, description, id)
	if err != nil {
		return r.wrap("update category", err)
	}
	return r.requireRow("update category", res)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	query := r.d.rebind("DELETE FROM " + tableCategories + " WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.wrap("delete category", err)
	}
	return r.requireRow("delete category", res)
}

func (r *Repository) requireRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return r.wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

// ListAccounts returns a user's accounts in creation order.
func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	query := r.d.rebind("SELECT id, name, balance FROM " + tableAccounts + " WHERE user_id = ? ORDER BY id")
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, r.wrap("list accounts", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		acc := core.Account{UserID: userID}
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Balance.Cents); err != nil {
			return nil, r.wrap("scan account", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("list accounts", err)
	}
	return accounts, nil
}

// ListCategories returns a user's categories in creation order.
func (r *Repository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	query := r.d.rebind("SELECT id, name, description FROM " + tableCategories + " WHERE user_id = ? ORDER BY id")
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, r.wrap("list categories", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		cat := core.Category{UserID: userID}
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
			return nil, r.wrap("scan category", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("list categories", err)
	}
	return categories, nil
}

// ListTransactions projects a user's expenses or income in creation order,
// joined back to the account and category display names.
func (r *Repository) ListTransactions(ctx context.Context, kind core.Kind, userID int64) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	table, _ := transactionTable(kind)

	query := r.d.rebind("SELECT t.id, a.name, c.name, t.amount" +
		" FROM " + table + " t" +
		" JOIN " + tableAccounts + " a ON t.account_id = a.id" +
		" JOIN " + tableCategories + " c ON t.category_id = c.id" +
		" WHERE t.user_id = ? ORDER BY t.id")
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, r.wrap("list "+string(kind), err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		txn := core.Transaction{UserID: userID, Kind: kind}
		if err := rows.Scan(&txn.ID, &txn.Account, &txn.Category, &txn.Amount.Cents); err != nil {
			return nil, r.wrap("scan "+string(kind), err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("list "+string(kind), err)
	}
	return txns, nil
}

// TotalBalance sums all of a user's account balances.
func (r *Repository) TotalBalance(ctx context.Context, userID int64) (int64, error) {
	var total int64
	query := r.d.rebind("SELECT COALESCE(SUM(balance), 0) FROM " + tableAccounts + " WHERE user_id = ?")
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, r.wrap("total balance", err)
	}
	return total, nil
}

// AccountBalances returns the stored balance of every account across all
// users, keyed by account id. Used by the reconciler to seed and compare.
func (r *Repository) AccountBalances(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, balance FROM "+tableAccounts)
	if err != nil {
		return nil, r.wrap("account balances", err)
	}
	defer rows.Close()

	balances := make(map[int64]int64)
	for rows.Next() {
		var id, balance int64
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, r.wrap("scan balance", err)
		}
		balances[id] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("account balances", err)
	}
	return balances, nil
}

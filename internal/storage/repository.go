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

	"github.com/hydrUsD/betterbudgeter/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
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

// GetAccount resolves one persisted account by id.
func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, institution_id, synthetic_id, name, type, currency, balance_cents, last_synced_at
		FROM accounts WHERE id = ?`, id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

// ListAccounts returns all accounts owned by a user, oldest first.
func (r *SQLiteRepository) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, institution_id, synthetic_id, name, type, currency, balance_cents, last_synced_at
		FROM accounts WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// CreateAccount inserts an account unless the owner already mirrors the same
// synthetic account; it reports whether a row was created.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, acct core.Account) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, institution_id, synthetic_id, name, type, currency, balance_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, synthetic_id) DO NOTHING`,
		acct.ID, acct.OwnerID, acct.InstitutionID, acct.SyntheticID,
		acct.Name, string(acct.Type), acct.Currency, acct.Balance.Cents)
	if err != nil {
		return false, fmt.Errorf("create account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create account rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteAccount removes an account; its transactions cascade.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertTransactions writes a batch keyed on (owner_id, external_id) inside
// one database transaction: new keys insert, existing keys overwrite the
// mutable fields. Returns how many rows were inserted vs updated.
func (r *SQLiteRepository) UpsertTransactions(ctx context.Context, rows []core.Transaction) (inserted, updated int, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	existsStmt, err := tx.PrepareContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE owner_id = ? AND external_id = ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("prepare exists: %w", err)
	}
	defer existsStmt.Close()

	upsertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions
			(owner_id, account_id, external_id, type, amount_cents, currency, booking_date, counterparty, description, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, external_id) DO UPDATE SET
			account_id = excluded.account_id,
			type = excluded.type,
			amount_cents = excluded.amount_cents,
			currency = excluded.currency,
			booking_date = excluded.booking_date,
			counterparty = excluded.counterparty,
			description = excluded.description,
			category = excluded.category,
			updated_at = datetime('now')`)
	if err != nil {
		return 0, 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsertStmt.Close()

	for _, row := range rows {
		var exists bool
		if err := existsStmt.QueryRowContext(ctx, row.OwnerID, row.ExternalID).Scan(&exists); err != nil {
			return 0, 0, fmt.Errorf("check transaction %s: %w", row.ExternalID, err)
		}

		_, err := upsertStmt.ExecContext(ctx,
			row.OwnerID, row.AccountID, row.ExternalID, string(row.Type),
			row.Amount.Cents, row.Currency, row.BookingDate.Format(dateLayout),
			row.Counterparty, row.Description, row.Category)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert transaction %s: %w", row.ExternalID, err)
		}

		if exists {
			updated++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Transactions upserted",
		"inserted", inserted,
		"updated", updated)

	return inserted, updated, nil
}

// UpdateAccountBalance persists a recomputed balance with a sync timestamp.
func (r *SQLiteRepository) UpdateAccountBalance(ctx context.Context, id string, balance core.Money, syncedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = ?, last_synced_at = ? WHERE id = ?`,
		balance.Cents, syncedAt.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTransactions returns a user's transactions with booking dates inside
// [from, to], ordered by date then external id.
func (r *SQLiteRepository) GetTransactions(ctx context.Context, ownerID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id, account_id, external_id, type, amount_cents, currency, booking_date, counterparty, description, category
		FROM transactions
		WHERE owner_id = ? AND booking_date >= ? AND booking_date <= ?
		ORDER BY booking_date, external_id`,
		ownerID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var txType, bookingDate string
		if err := rows.Scan(&t.OwnerID, &t.AccountID, &t.ExternalID, &txType, &t.Amount.Cents,
			&t.Currency, &bookingDate, &t.Counterparty, &t.Description, &t.Category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TxType(txType)
		t.BookingDate, err = time.Parse(dateLayout, bookingDate)
		if err != nil {
			return nil, fmt.Errorf("parse booking date %q: %w", bookingDate, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetBudgets returns a user's budgets ordered by category.
func (r *SQLiteRepository) GetBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id, category, monthly_limit_cents
		FROM budgets WHERE owner_id = ? ORDER BY category`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.OwnerID, &b.Category, &b.MonthlyLimit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetBudget creates or replaces the budget for (owner, category).
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (owner_id, category, monthly_limit_cents)
		VALUES (?, ?, ?)
		ON CONFLICT (owner_id, category) DO UPDATE SET
			monthly_limit_cents = excluded.monthly_limit_cents,
			updated_at = datetime('now')`,
		b.OwnerID, b.Category, b.MonthlyLimit.Cents)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var acct core.Account
	var acctType string
	var syncedAt sql.NullString
	err := row.Scan(&acct.ID, &acct.OwnerID, &acct.InstitutionID, &acct.SyntheticID,
		&acct.Name, &acctType, &acct.Currency, &acct.Balance.Cents, &syncedAt)
	if err != nil {
		return core.Account{}, err
	}
	acct.Type = core.AccountType(acctType)
	if syncedAt.Valid && syncedAt.String != "" {
		acct.LastSyncedAt, err = time.Parse(timeLayout, syncedAt.String)
		if err != nil {
			return core.Account{}, fmt.Errorf("parse last_synced_at %q: %w", syncedAt.String, err)
		}
	}
	return acct, nil
}

// Package mirror keeps a local SQLite snapshot of the remote ledger so the
// CLI can show the last known state when the API is unreachable. The mirror
// is read-only from the user's point of view; the sync worker overwrites it
// month by month with whatever the server returns.
package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ErrNoSnapshot is returned when the mirror holds no data for a month.
var ErrNoSnapshot = errors.New("no snapshot for month")

// Repository stores per-month snapshots of transactions and budgets.
type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewRepository opens (creating if needed) the mirror database at dbPath and
// applies pending migrations.
func NewRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{
		db:     db,
		logger: logger.WithComponent(log.ComponentMirror),
	}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// ReplaceMonth atomically swaps the stored transactions for a month with the
// given set and stamps the sync time. Rows the server no longer returns are
// dropped, so the snapshot never drifts ahead of the source.
func (r *Repository) ReplaceMonth(ctx context.Context, month core.Month, txs []core.Transaction) error {
	if err := month.Validate(); err != nil {
		return err
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx,
		`DELETE FROM transactions WHERE month = ?`, month.String()); err != nil {
		return fmt.Errorf("clear month: %w", err)
	}

	for _, tx := range txs {
		if _, err := dbTx.ExecContext(ctx,
			`INSERT INTO transactions (id, month, date, category, amount_cents, tx_type)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tx.ID, month.String(), tx.Date.String(), tx.Category, tx.Amount.Cents, string(tx.Type)); err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	if _, err := dbTx.ExecContext(ctx,
		`INSERT INTO sync_state (month, synced_at) VALUES (?, ?)
		 ON CONFLICT(month) DO UPDATE SET synced_at = excluded.synced_at`,
		month.String(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("stamp sync time: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Debug("Month snapshot replaced",
		log.FieldMonth, month.String(),
		log.FieldRowCount, len(txs))
	return nil
}

// ListMonth returns the stored transactions for a month, oldest first.
// Returns ErrNoSnapshot when the month has never been synced.
func (r *Repository) ListMonth(ctx context.Context, month core.Month) ([]core.Transaction, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}

	if _, err := r.LastSynced(ctx, month); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, category, amount_cents, tx_type
		 FROM transactions WHERE month = ? ORDER BY date, id`,
		month.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			rawDate string
			rawType string
		)
		if err := rows.Scan(&tx.ID, &rawDate, &tx.Category, &tx.Amount.Cents, &rawType); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		date, err := core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", rawDate, err)
		}
		tx.Date = date
		tx.Type = core.TxType(rawType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// SaveBudget stores the month's budget snapshot.
func (r *Repository) SaveBudget(ctx context.Context, month core.Month, amount core.Money) error {
	if err := month.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (month, amount_cents) VALUES (?, ?)
		 ON CONFLICT(month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		month.String(), amount.Cents)
	if err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

// GetBudget returns the stored budget for a month. The boolean is false when
// no budget has ever been mirrored for that month.
func (r *Repository) GetBudget(ctx context.Context, month core.Month) (core.Money, bool, error) {
	if err := month.Validate(); err != nil {
		return core.Money{}, false, err
	}
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT amount_cents FROM budgets WHERE month = ?`, month.String()).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, false, nil
	}
	if err != nil {
		return core.Money{}, false, fmt.Errorf("query budget: %w", err)
	}
	return core.Money{Cents: cents}, true, nil
}

// LastSynced returns when the month was last refreshed from the server.
func (r *Repository) LastSynced(ctx context.Context, month core.Month) (time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT synced_at FROM sync_state WHERE month = ?`, month.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoSnapshot, month.String())
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query sync state: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored sync time %q: %w", raw, err)
	}
	return ts, nil
}

// Package storage keeps a local SQLite outbox of entries awaiting sync to
// Notion. Writes land here first so the dashboard stays usable when Notion
// is slow or down; a worker drains the outbox asynchronously.
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

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/Djeyff/bamboojam-os/internal/core"
)

// Entry kinds in the outbox.
const (
	KindRevenue = "revenue"
	KindExpense = "expense"
	KindLedger  = "ledger"
)

var ErrNotFound = errors.New("pending entry not found")

// PendingEntry is one outbox row. Kind decides which fields are meaningful:
// ledger entries carry Ledger and EntryType, expenses carry Category and
// Source. Amount is stored as a decimal string to avoid float drift.
type PendingEntry struct {
	ID           int64
	Kind         string
	Ledger       string
	Description  string
	Amount       decimal.Decimal
	Date         time.Time
	Category     string
	Source       string
	Period       string
	EntryType    string
	Notes        string
	SyncStatus   string
	SyncAttempts int64
	NotionRef    string
	CreatedAt    time.Time
}

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

const insertPending = `
INSERT INTO pending_entries (kind, ledger, description, amount, entry_date, category, source, period, entry_type, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *SQLiteRepository) createPending(ctx context.Context, e PendingEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertPending,
		e.Kind, e.Ledger, e.Description, e.Amount.String(),
		e.Date.Format(time.DateOnly),
		e.Category, e.Source, e.Period, e.EntryType, e.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert pending entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to outbox",
		"id", id,
		"kind", e.Kind,
		"description", e.Description,
		"amount", e.Amount.String())

	return id, nil
}

func (r *SQLiteRepository) CreatePendingRevenue(ctx context.Context, rev core.Revenue) (int64, error) {
	if err := rev.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	return r.createPending(ctx, PendingEntry{
		Kind:        KindRevenue,
		Description: rev.Description,
		Amount:      rev.Amount,
		Date:        rev.Date,
		Period:      rev.Period,
	})
}

func (r *SQLiteRepository) CreatePendingExpense(ctx context.Context, exp core.Expense) (int64, error) {
	if err := exp.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	return r.createPending(ctx, PendingEntry{
		Kind:        KindExpense,
		Description: exp.Description,
		Amount:      exp.Amount,
		Date:        exp.Date,
		Category:    exp.Category,
		Source:      exp.Source,
		Period:      exp.Period,
		Notes:       exp.Notes,
	})
}

func (r *SQLiteRepository) CreatePendingLedgerEntry(ctx context.Context, ledger core.LedgerID, le core.LedgerEntry) (int64, error) {
	if err := le.Validate(ledger); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	return r.createPending(ctx, PendingEntry{
		Kind:        KindLedger,
		Ledger:      string(ledger),
		Description: le.Description,
		Amount:      le.Amount,
		Date:        le.Date,
		EntryType:   le.Type,
		Notes:       le.Notes,
	})
}

const selectEntry = `
SELECT id, kind, ledger, description, amount, entry_date, category, source, period, entry_type, notes, sync_status, sync_attempts, notion_ref, created_at
FROM pending_entries`

func scanEntry(row interface{ Scan(...any) error }) (PendingEntry, error) {
	var e PendingEntry
	var amount, date string
	err := row.Scan(&e.ID, &e.Kind, &e.Ledger, &e.Description, &amount, &date,
		&e.Category, &e.Source, &e.Period, &e.EntryType, &e.Notes,
		&e.SyncStatus, &e.SyncAttempts, &e.NotionRef, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return e, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Date, err = time.Parse(time.DateOnly, date)
	if err != nil {
		return e, fmt.Errorf("parse entry date %q: %w", date, err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetPending(ctx context.Context, id int64) (PendingEntry, error) {
	row := r.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("get pending entry %d: %w", id, err)
	}
	return e, nil
}

// ListPendingSync returns the oldest unsynced entries, up to limit.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		selectEntry+` WHERE sync_status = 'pending' ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	defer rows.Close()

	var entries []PendingEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, notionRef string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pending_entries SET sync_status = 'synced', notion_ref = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		notionRef, id)
	if err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}

	slog.InfoContext(ctx, "Entry marked as synced", "id", id, "notion_ref", notionRef)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pending_entries SET sync_status = 'error', sync_attempts = sync_attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id)
	if err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}

	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

// RequeueErrors flips errored entries back to pending so the startup sweep
// retries them.
func (r *SQLiteRepository) RequeueErrors(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_entries SET sync_status = 'pending', updated_at = CURRENT_TIMESTAMP WHERE sync_status = 'error'`)
	if err != nil {
		return 0, fmt.Errorf("requeue errored entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Revenue converts a revenue-kind entry back to its domain form.
func (e PendingEntry) Revenue() core.Revenue {
	return core.Revenue{
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date,
		Period:      e.Period,
	}
}

func (e PendingEntry) Expense() core.Expense {
	return core.Expense{
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date,
		Category:    e.Category,
		Source:      e.Source,
		Period:      e.Period,
		Notes:       e.Notes,
	}
}

func (e PendingEntry) LedgerEntry() (core.LedgerID, core.LedgerEntry) {
	return core.LedgerID(e.Ledger), core.LedgerEntry{
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date,
		Type:        e.EntryType,
		Notes:       e.Notes,
	}
}

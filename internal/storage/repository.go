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

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the record store: a single transactions table plus
// the filtered and aggregated queries layered over it.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
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

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create inserts a new transaction and returns its assigned id. The name is
// truncated to the column width before storage.
func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Name:            truncateName(t.Name),
		TransactionType: string(t.Type),
		Amount:          t.Amount,
		Date:            t.Date(),
		Time:            t.TimeOfDay(),
		ReceiptImage:    nullableString(t.ReceiptImage),
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"name", t.Name,
		"transaction_type", t.Type,
		"amount", t.Amount,
		"date", t.Date())

	return id, nil
}

// Get fetches a single transaction, returning core.ErrNotFound for unknown ids.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return rowToTransaction(row)
}

// Update overwrites all fields of an existing row, including the receipt path.
// Callers decide whether to carry the previous receipt forward.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) error {
	affected, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		ID:              t.ID,
		Name:            truncateName(t.Name),
		TransactionType: string(t.Type),
		Amount:          t.Amount,
		Date:            t.Date(),
		Time:            t.TimeOfDay(),
		ReceiptImage:    nullableString(t.ReceiptImage),
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

// Delete removes the row. The referenced receipt file is intentionally left
// on disk; the worker's audit pass reports such orphans.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ListByDateRange returns transactions with date in the inclusive range,
// newest date first.
func (r *SQLiteRepository) ListByDateRange(ctx context.Context, dr core.DateRange) ([]core.Transaction, error) {
	rows, err := r.queries.ListByDateRange(ctx,
		dr.Start.Format(core.DateLayout), dr.End.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list by date range: %w", err)
	}
	return rowsToTransactions(rows)
}

// SearchByName performs a case-insensitive substring match on the name field,
// newest date first.
func (r *SQLiteRepository) SearchByName(ctx context.Context, query string) ([]core.Transaction, error) {
	rows, err := r.queries.SearchByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	return rowsToTransactions(rows)
}

// TotalsInRange sums amounts per category over the inclusive range. Categories
// with no transactions in range contribute zero.
func (r *SQLiteRepository) TotalsInRange(ctx context.Context, dr core.DateRange) (core.Totals, error) {
	start := dr.Start.Format(core.DateLayout)
	end := dr.End.Format(core.DateLayout)

	var totals core.Totals
	var err error
	if totals.Investments, err = r.queries.SumTypeInRange(ctx, string(core.Investment), start, end); err != nil {
		return core.Totals{}, fmt.Errorf("sum investments: %w", err)
	}
	if totals.Expenditures, err = r.queries.SumTypeInRange(ctx, string(core.Expenditure), start, end); err != nil {
		return core.Totals{}, fmt.Errorf("sum expenditures: %w", err)
	}
	if totals.Sales, err = r.queries.SumTypeInRange(ctx, string(core.Sales), start, end); err != nil {
		return core.Totals{}, fmt.Errorf("sum sales: %w", err)
	}
	return totals, nil
}

// Totals sums amounts per category over all time.
func (r *SQLiteRepository) Totals(ctx context.Context) (core.Totals, error) {
	var totals core.Totals
	var err error
	if totals.Investments, err = r.queries.SumType(ctx, string(core.Investment)); err != nil {
		return core.Totals{}, fmt.Errorf("sum investments: %w", err)
	}
	if totals.Expenditures, err = r.queries.SumType(ctx, string(core.Expenditure)); err != nil {
		return core.Totals{}, fmt.Errorf("sum expenditures: %w", err)
	}
	if totals.Sales, err = r.queries.SumType(ctx, string(core.Sales)); err != nil {
		return core.Totals{}, fmt.Errorf("sum sales: %w", err)
	}
	return totals, nil
}

// ListReceiptPaths returns every receipt path currently referenced by a row.
// Used by the orphan audit to diff against the upload directory.
func (r *SQLiteRepository) ListReceiptPaths(ctx context.Context) ([]string, error) {
	paths, err := r.queries.ListReceiptPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipt paths: %w", err)
	}
	return paths, nil
}

// ListPendingSync returns transactions not yet exported, oldest first.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListPendingSync(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	return rowsToTransactions(rows)
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having failed export.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func truncateName(name string) string {
	if len(name) > core.MaxNameLength {
		return name[:core.MaxNameLength]
	}
	return name
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func rowToTransaction(row TransactionRow) (core.Transaction, error) {
	occurredAt, err := time.Parse("2006-01-02 15:04:05", row.Date+" "+row.Time)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored timestamp %q %q: %w", row.Date, row.Time, err)
	}
	return core.Transaction{
		ID:           row.ID,
		Name:         row.Name,
		Type:         core.TransactionType(row.TransactionType),
		Amount:       row.Amount,
		OccurredAt:   occurredAt,
		ReceiptImage: row.ReceiptImage.String,
	}, nil
}

func rowsToTransactions(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of *sql.DB / *sql.Tx the queries need.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// TransactionRow mirrors the transactions table.
type TransactionRow struct {
	ID              int64
	Name            string
	TransactionType string
	Amount          float64
	Date            string
	Time            string
	ReceiptImage    sql.NullString
	SyncStatus      string
	CreatedAt       time.Time
}

type CreateTransactionParams struct {
	Name            string
	TransactionType string
	Amount          float64
	Date            string
	Time            string
	ReceiptImage    sql.NullString
}

const createTransaction = `
INSERT INTO transactions (name, transaction_type, amount, date, time, receipt_image)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		arg.Name, arg.TransactionType, arg.Amount, arg.Date, arg.Time, arg.ReceiptImage)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getTransaction = `
SELECT id, name, transaction_type, amount, date, time, receipt_image, sync_status, created_at
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	var row TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).Scan(
		&row.ID, &row.Name, &row.TransactionType, &row.Amount,
		&row.Date, &row.Time, &row.ReceiptImage, &row.SyncStatus, &row.CreatedAt)
	return row, err
}

type UpdateTransactionParams struct {
	ID              int64
	Name            string
	TransactionType string
	Amount          float64
	Date            string
	Time            string
	ReceiptImage    sql.NullString
}

const updateTransaction = `
UPDATE transactions
SET name = ?, transaction_type = ?, amount = ?, date = ?, time = ?, receipt_image = ?, sync_status = 'pending'
WHERE id = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Name, arg.TransactionType, arg.Amount, arg.Date, arg.Time, arg.ReceiptImage, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listByDateRange = `
SELECT id, name, transaction_type, amount, date, time, receipt_image, sync_status, created_at
FROM transactions
WHERE date BETWEEN ? AND ?
ORDER BY date DESC, id DESC
`

func (q *Queries) ListByDateRange(ctx context.Context, start, end string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listByDateRange, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

const searchByName = `
SELECT id, name, transaction_type, amount, date, time, receipt_image, sync_status, created_at
FROM transactions
WHERE LOWER(name) LIKE '%' || LOWER(?) || '%'
ORDER BY date DESC, id DESC
`

func (q *Queries) SearchByName(ctx context.Context, query string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, searchByName, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

const sumTypeInRange = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE transaction_type = ? AND date BETWEEN ? AND ?
`

func (q *Queries) SumTypeInRange(ctx context.Context, transactionType, start, end string) (float64, error) {
	var sum float64
	err := q.db.QueryRowContext(ctx, sumTypeInRange, transactionType, start, end).Scan(&sum)
	return sum, err
}

const sumType = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE transaction_type = ?
`

func (q *Queries) SumType(ctx context.Context, transactionType string) (float64, error) {
	var sum float64
	err := q.db.QueryRowContext(ctx, sumType, transactionType).Scan(&sum)
	return sum, err
}

const listReceiptPaths = `
SELECT receipt_image
FROM transactions
WHERE receipt_image IS NOT NULL AND receipt_image != ''
`

func (q *Queries) ListReceiptPaths(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listReceiptPaths)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

const listPendingSync = `
SELECT id, name, transaction_type, amount, date, time, receipt_image, sync_status, created_at
FROM transactions
WHERE sync_status = 'pending'
ORDER BY id ASC
LIMIT ?
`

func (q *Queries) ListPendingSync(ctx context.Context, limit int64) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listPendingSync, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

const markTransactionSynced = `
UPDATE transactions SET sync_status = 'synced' WHERE id = ?
`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionSyncError = `
UPDATE transactions SET sync_status = 'error' WHERE id = ?
`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

func scanTransactionRows(rows *sql.Rows) ([]TransactionRow, error) {
	var out []TransactionRow
	for rows.Next() {
		var row TransactionRow
		if err := rows.Scan(
			&row.ID, &row.Name, &row.TransactionType, &row.Amount,
			&row.Date, &row.Time, &row.ReceiptImage, &row.SyncStatus, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

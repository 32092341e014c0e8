package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ledger/internal/core"
)

// Repository is the slice of the storage layer the service writes through.
type Repository interface {
	Create(ctx context.Context, t core.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, id int64) error
	ListByDateRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error)
	SearchByName(ctx context.Context, query string) ([]core.Transaction, error)
	TotalsInRange(ctx context.Context, r core.DateRange) (core.Totals, error)
	Totals(ctx context.Context) (core.Totals, error)
}

// FileStore persists receipt images and hands back reference paths.
type FileStore interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(relPath string) error
}

// EventPublisher pushes sync and orphan events to the worker. A nil
// publisher is valid; events are then skipped with a warning.
type EventPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	PublishReceiptOrphan(ctx context.Context, path, reason string, transactionID int64) error
}

// ReceiptUpload is an incoming receipt file. Filename is the
// client-supplied name before sanitization.
type ReceiptUpload struct {
	Filename string
	Data     io.Reader
}

// TransactionService orchestrates writes across the database, the file
// store and AMQP. Reads pass straight through to the repository.
type TransactionService struct {
	repo   Repository
	files  FileStore
	events EventPublisher
}

func NewTransactionService(repo Repository, files FileStore, events EventPublisher) *TransactionService {
	return &TransactionService{
		repo:   repo,
		files:  files,
		events: events,
	}
}

// Create saves the receipt first, then the row. If the insert fails the
// saved file is removed again so no unreferenced upload is left behind.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction, receipt *ReceiptUpload) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	savedPath := ""
	if receipt != nil {
		path, err := s.files.Save(receipt.Filename, receipt.Data)
		if err != nil {
			return 0, fmt.Errorf("save receipt: %w", err)
		}
		savedPath = path
		t.ReceiptImage = path
	}

	id, err := s.repo.Create(ctx, t)
	if err != nil {
		if savedPath != "" {
			if rmErr := s.files.Remove(savedPath); rmErr != nil {
				slog.ErrorContext(ctx, "Failed to remove receipt after insert failure",
					"path", savedPath, "error", rmErr)
			}
		}
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.publishSync(ctx, id, 1)
	return id, nil
}

// Get returns one transaction or core.ErrNotFound.
func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.Get(ctx, id)
}

// Update replaces the row with id. A new receipt, if given, is saved and
// supersedes the old one; the old path is flagged as orphaned, never
// deleted. Without a new receipt the existing path is carried forward.
func (s *TransactionService) Update(ctx context.Context, id int64, t core.Transaction, receipt *ReceiptUpload) error {
	if err := t.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	savedPath := ""
	t.ReceiptImage = existing.ReceiptImage
	if receipt != nil {
		path, err := s.files.Save(receipt.Filename, receipt.Data)
		if err != nil {
			return fmt.Errorf("save receipt: %w", err)
		}
		savedPath = path
		t.ReceiptImage = path
	}

	t.ID = id
	if err := s.repo.Update(ctx, t); err != nil {
		if savedPath != "" {
			if rmErr := s.files.Remove(savedPath); rmErr != nil {
				slog.ErrorContext(ctx, "Failed to remove receipt after update failure",
					"path", savedPath, "error", rmErr)
			}
		}
		return fmt.Errorf("update transaction: %w", err)
	}

	if savedPath != "" && existing.HasReceipt() && existing.ReceiptImage != savedPath {
		s.publishOrphan(ctx, existing.ReceiptImage, "receipt replaced", id)
	}

	s.publishSync(ctx, id, 2)
	return nil
}

// Delete removes the row. Its receipt file stays on disk and is flagged
// as orphaned for the audit.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if existing.HasReceipt() {
		s.publishOrphan(ctx, existing.ReceiptImage, "transaction deleted", id)
	}

	return nil
}

func (s *TransactionService) ListByDateRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	return s.repo.ListByDateRange(ctx, r)
}

func (s *TransactionService) SearchByName(ctx context.Context, query string) ([]core.Transaction, error) {
	return s.repo.SearchByName(ctx, query)
}

func (s *TransactionService) TotalsInRange(ctx context.Context, r core.DateRange) (core.Totals, error) {
	return s.repo.TotalsInRange(ctx, r)
}

func (s *TransactionService) Totals(ctx context.Context) (core.Totals, error) {
	return s.repo.Totals(ctx)
}

func (s *TransactionService) publishSync(ctx context.Context, id, version int64) {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return
	}
	if err := s.events.PublishTransactionSync(ctx, id, version); err != nil {
		// Row is saved locally; the periodic sync picks it up later.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *TransactionService) publishOrphan(ctx context.Context, path, reason string, id int64) {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping orphan message", "path", path)
		return
	}
	if err := s.events.PublishReceiptOrphan(ctx, path, reason, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish orphan message", "path", path, "error", err)
	}
}

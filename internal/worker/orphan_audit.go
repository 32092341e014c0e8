package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
)

// ReceiptLister enumerates files currently in the upload store.
type ReceiptLister interface {
	List() ([]string, error)
}

// ReferencedPaths enumerates receipt paths still referenced by rows.
type ReferencedPaths interface {
	ListReceiptPaths(ctx context.Context) ([]string, error)
}

// OrphanAuditor reports upload files no row points at anymore. It only
// reports; files are never deleted so a bad audit can't destroy data.
type OrphanAuditor struct {
	files ReceiptLister
	repo  ReferencedPaths
}

func NewOrphanAuditor(files ReceiptLister, repo ReferencedPaths) *OrphanAuditor {
	return &OrphanAuditor{files: files, repo: repo}
}

// Audit diffs the upload directory against the referenced paths and
// returns the orphans, logging each one.
func (a *OrphanAuditor) Audit(ctx context.Context) ([]string, error) {
	onDisk, err := a.files.List()
	if err != nil {
		return nil, fmt.Errorf("list upload files: %w", err)
	}

	referenced, err := a.repo.ListReceiptPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list referenced receipts: %w", err)
	}

	refSet := make(map[string]struct{}, len(referenced))
	for _, p := range referenced {
		refSet[p] = struct{}{}
	}

	var orphans []string
	for _, p := range onDisk {
		if _, ok := refSet[p]; !ok {
			orphans = append(orphans, p)
		}
	}

	if len(orphans) == 0 {
		slog.InfoContext(ctx, "Receipt audit clean",
			"files", len(onDisk),
			"referenced", len(referenced))
		return nil, nil
	}

	for _, p := range orphans {
		slog.WarnContext(ctx, "Orphaned receipt file", "path", p)
	}
	slog.InfoContext(ctx, "Receipt audit found orphans",
		"files", len(onDisk),
		"referenced", len(referenced),
		"orphans", len(orphans))

	return orphans, nil
}

// HandleOrphanMessage records an orphan event published by the app. The
// file stays on disk; the log line is the audit trail.
func (a *OrphanAuditor) HandleOrphanMessage(ctx context.Context, msg *amqp.ReceiptOrphanMessage) error {
	slog.WarnContext(ctx, "Receipt orphaned",
		"path", msg.Path,
		"reason", msg.Reason,
		"transaction_id", msg.TransactionID,
		"flagged_at", msg.Timestamp)
	return nil
}

package sheets

import (
	"context"

	"ledger/internal/core"
)

// RowAppender appends one transaction as a spreadsheet row and returns a
// reference to where it landed.
type RowAppender interface {
	Append(ctx context.Context, t core.Transaction) (string, error)
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreate(t *testing.T, repo *SQLiteRepository, name string, typ core.TransactionType, amount float64, dateTime string) int64 {
	t.Helper()
	ts, err := time.Parse(core.DateTimeLayout, dateTime)
	if err != nil {
		t.Fatalf("parse %q: %v", dateTime, err)
	}
	id, err := repo.Create(context.Background(), core.Transaction{
		Name:       name,
		Type:       typ,
		Amount:     amount,
		OccurredAt: ts,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return id
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ts, _ := time.Parse(core.DateTimeLayout, "2024-03-01T09:00")
	id, err := repo.Create(ctx, core.Transaction{
		Name:         "Coffee",
		Type:         core.Expenditure,
		Amount:       4.50,
		OccurredAt:   ts,
		ReceiptImage: "uploads/r1.png",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Coffee" || got.Type != core.Expenditure || got.Amount != 4.50 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Date() != "2024-03-01" || got.TimeOfDay() != "09:00:00" {
		t.Fatalf("timestamp mismatch: date=%s time=%s", got.Date(), got.TimeOfDay())
	}
	if got.ReceiptImage != "uploads/r1.png" {
		t.Fatalf("ReceiptImage = %q", got.ReceiptImage)
	}
}

func TestCreateWithoutReceipt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustCreate(t, repo, "Coffee", core.Expenditure, 4.50, "2024-03-01T09:00")
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.HasReceipt() {
		t.Fatalf("expected no receipt, got %q", got.ReceiptImage)
	}
}

func TestCreateTruncatesLongNames(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	long := strings.Repeat("x", core.MaxNameLength+50)
	ts, _ := time.Parse(core.DateTimeLayout, "2024-03-01T09:00")
	id, err := repo.Create(ctx, core.Transaction{Name: long, Type: core.Sales, Amount: 1, OccurredAt: ts})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Name) != core.MaxNameLength {
		t.Fatalf("stored name length = %d, want %d", len(got.Name), core.MaxNameLength)
	}
}

func TestGetUnknownIDFailsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), 9999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustCreate(t, repo, "Coffee", core.Expenditure, 4.50, "2024-03-01T09:00")

	ts, _ := time.Parse(core.DateTimeLayout, "2024-03-02T10:30")
	err := repo.Update(ctx, core.Transaction{
		ID:           id,
		Name:         "Espresso",
		Type:         core.Expenditure,
		Amount:       5.00,
		OccurredAt:   ts,
		ReceiptImage: "uploads/r1.png",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Espresso" || got.Amount != 5.00 || got.Date() != "2024-03-02" {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.ReceiptImage != "uploads/r1.png" {
		t.Fatalf("ReceiptImage = %q", got.ReceiptImage)
	}
}

func TestUpdateUnknownIDFailsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ts, _ := time.Parse(core.DateTimeLayout, "2024-03-01T09:00")
	err := repo.Update(context.Background(), core.Transaction{
		ID: 1234, Name: "x", Type: core.Sales, Amount: 1, OccurredAt: ts,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustCreate(t, repo, "Coffee", core.Expenditure, 4.50, "2024-03-01T09:00")
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListByDateRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "early", core.Sales, 10, "2024-01-05T08:00")
	mustCreate(t, repo, "mid", core.Expenditure, 20, "2024-01-10T12:00")
	mustCreate(t, repo, "late", core.Investment, 30, "2024-02-01T18:00")

	start, _ := core.ParseDate("2024-01-01")
	end, _ := core.ParseDate("2024-01-31")
	dr, _ := core.NewDateRange(start, end)

	got, err := repo.ListByDateRange(ctx, dr)
	if err != nil {
		t.Fatalf("ListByDateRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	// Newest date first
	if got[0].Name != "mid" || got[1].Name != "early" {
		t.Fatalf("wrong order: %s, %s", got[0].Name, got[1].Name)
	}
}

func TestListByDateRangeInclusiveBounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "on-start", core.Sales, 1, "2024-01-01T00:00")
	mustCreate(t, repo, "on-end", core.Sales, 2, "2024-01-31T23:59")

	start, _ := core.ParseDate("2024-01-01")
	end, _ := core.ParseDate("2024-01-31")
	dr, _ := core.NewDateRange(start, end)

	got, err := repo.ListByDateRange(ctx, dr)
	if err != nil {
		t.Fatalf("ListByDateRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("bounds should be inclusive, got %d rows", len(got))
	}
}

func TestSearchByNameCaseInsensitiveSubstring(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "Grocery Store", core.Expenditure, 55, "2024-02-10T17:00")
	mustCreate(t, repo, "Hardware store", core.Expenditure, 12, "2024-02-12T09:00")
	mustCreate(t, repo, "Car wash", core.Expenditure, 9, "2024-02-14T13:00")

	for _, q := range []string{"grocery", "STORE", "ocery sto"} {
		got, err := repo.SearchByName(ctx, q)
		if err != nil {
			t.Fatalf("SearchByName(%q): %v", q, err)
		}
		found := false
		for _, tx := range got {
			if tx.Name == "Grocery Store" {
				found = true
			}
		}
		if !found {
			t.Fatalf("query %q did not match %q", q, "Grocery Store")
		}
	}

	got, err := repo.SearchByName(ctx, "store")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d matches for %q, want 2", len(got), "store")
	}
	if !got[0].OccurredAt.After(got[1].OccurredAt) {
		t.Fatalf("results not ordered by date descending")
	}
}

func TestTotalsInRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "sale", core.Sales, 100, "2024-01-05T10:00")
	mustCreate(t, repo, "supplies", core.Expenditure, 30, "2024-01-10T10:00")
	mustCreate(t, repo, "outside", core.Investment, 500, "2024-03-01T10:00")

	start, _ := core.ParseDate("2024-01-01")
	end, _ := core.ParseDate("2024-01-31")
	dr, _ := core.NewDateRange(start, end)

	totals, err := repo.TotalsInRange(ctx, dr)
	if err != nil {
		t.Fatalf("TotalsInRange: %v", err)
	}
	if totals.Investments != 0 || totals.Expenditures != 30 || totals.Sales != 100 {
		t.Fatalf("totals = %+v", totals)
	}
	if totals.Profit() != 70 {
		t.Fatalf("Profit() = %v, want 70", totals.Profit())
	}
}

func TestTotalsAllTimeMatchesUnboundedRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "sale", core.Sales, 100, "2024-01-05T10:00")
	mustCreate(t, repo, "invest", core.Investment, 500, "2024-03-01T10:00")
	mustCreate(t, repo, "supplies", core.Expenditure, 30, "2023-12-25T10:00")

	all, err := repo.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}

	start, _ := core.ParseDate("1970-01-01")
	end, _ := core.ParseDate("2100-12-31")
	dr, _ := core.NewDateRange(start, end)
	ranged, err := repo.TotalsInRange(ctx, dr)
	if err != nil {
		t.Fatalf("TotalsInRange: %v", err)
	}

	if all != ranged {
		t.Fatalf("all-time totals %+v != degenerate range totals %+v", all, ranged)
	}
}

func TestListReceiptPaths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ts, _ := time.Parse(core.DateTimeLayout, "2024-03-01T09:00")
	if _, err := repo.Create(ctx, core.Transaction{
		Name: "with receipt", Type: core.Sales, Amount: 1, OccurredAt: ts, ReceiptImage: "uploads/a.png",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mustCreate(t, repo, "without receipt", core.Sales, 2, "2024-03-01T10:00")

	paths, err := repo.ListReceiptPaths(ctx)
	if err != nil {
		t.Fatalf("ListReceiptPaths: %v", err)
	}
	if len(paths) != 1 || paths[0] != "uploads/a.png" {
		t.Fatalf("paths = %v", paths)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1 := mustCreate(t, repo, "first", core.Sales, 1, "2024-03-01T09:00")
	id2 := mustCreate(t, repo, "second", core.Sales, 2, "2024-03-01T10:00")

	pending, err := repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSync: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != id1 {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkSynced(ctx, id1); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, id2); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	pending, err = repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSync: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}
}

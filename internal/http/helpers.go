package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/core"
)

type transactionView struct {
	ID           int64
	Name         string
	Type         string
	Amount       string
	Date         string
	Time         string
	DateTime     string
	ReceiptImage string
}

type totalsView struct {
	Investments  string
	Expenditures string
	Sales        string
	Profit       string
	StartDate    string
	EndDate      string
}

type analysisView struct {
	SearchQuery   string
	SearchResults []transactionView
	Totals        *totalsView
	StartDate     string
	EndDate       string
}

func toView(t core.Transaction) transactionView {
	return transactionView{
		ID:           t.ID,
		Name:         t.Name,
		Type:         string(t.Type),
		Amount:       formatAmount(t.Amount),
		Date:         t.Date(),
		Time:         t.TimeOfDay(),
		DateTime:     t.OccurredAt.Format(core.DateTimeLayout),
		ReceiptImage: t.ReceiptImage,
	}
}

func toViews(ts []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, toView(t))
	}
	return out
}

func newTotalsView(t core.Totals, startDate, endDate string) *totalsView {
	return &totalsView{
		Investments:  formatAmount(t.Investments),
		Expenditures: formatAmount(t.Expenditures),
		Sales:        formatAmount(t.Sales),
		Profit:       formatAmount(t.Profit()),
		StartDate:    startDate,
		EndDate:      endDate,
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func parseRange(startDate, endDate string) (core.DateRange, error) {
	start, err := core.ParseDate(startDate)
	if err != nil {
		return core.DateRange{}, err
	}
	end, err := core.ParseDate(endDate)
	if err != nil {
		return core.DateRange{}, err
	}
	return core.NewDateRange(start, end)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

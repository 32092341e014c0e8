package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"ledger/internal/core"
	"ledger/internal/services"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", nil)
}

// handleAddTransaction creates a transaction from the add form. Invalid
// input is logged and answered with a redirect back to the form; the
// user never sees an error page.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	t, receipt, err := s.parseTransactionForm(w, r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Invalid add transaction form", "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	id, err := s.svc.Create(r.Context(), t, receipt)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err, "name", t.Name)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	slog.InfoContext(r.Context(), "Transaction created", "id", id, "name", t.Name)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleAnalysis serves the four query shapes, checked in order:
// transaction date search, range totals, name search, all-time totals.
// Bad dates or an inverted range redirect to the unfiltered view.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	searchType := q.Get("search_type")
	searchQuery := trimmed(q.Get("search"))
	startDate := q.Get("start_date")
	endDate := q.Get("end_date")

	if searchType == "transactions" && startDate != "" && endDate != "" {
		dr, err := parseRange(startDate, endDate)
		if err != nil {
			slog.WarnContext(r.Context(), "Invalid transaction date search", "error", err,
				"start_date", startDate, "end_date", endDate)
			http.Redirect(w, r, "/analysis", http.StatusFound)
			return
		}

		results, err := s.svc.ListByDateRange(r.Context(), dr)
		if err != nil {
			slog.ErrorContext(r.Context(), "Date range query failed", "error", err)
			http.Redirect(w, r, "/analysis", http.StatusFound)
			return
		}

		s.render(w, r, "analysis.html", analysisView{
			SearchResults: toViews(results),
			StartDate:     startDate,
			EndDate:       endDate,
		})
		return
	}

	if searchType == "totals" && startDate != "" && endDate != "" {
		dr, err := parseRange(startDate, endDate)
		if err != nil {
			slog.WarnContext(r.Context(), "Invalid totals date range", "error", err,
				"start_date", startDate, "end_date", endDate)
			http.Redirect(w, r, "/analysis", http.StatusFound)
			return
		}

		totals, err := s.svc.TotalsInRange(r.Context(), dr)
		if err != nil {
			slog.ErrorContext(r.Context(), "Range totals query failed", "error", err)
			http.Redirect(w, r, "/analysis", http.StatusFound)
			return
		}

		s.render(w, r, "analysis.html", analysisView{
			Totals:    newTotalsView(totals, startDate, endDate),
			StartDate: startDate,
			EndDate:   endDate,
		})
		return
	}

	if searchType == "name" && searchQuery != "" {
		results, err := s.svc.SearchByName(r.Context(), searchQuery)
		if err != nil {
			slog.ErrorContext(r.Context(), "Name search failed", "error", err, "query", searchQuery)
			http.Redirect(w, r, "/analysis", http.StatusFound)
			return
		}

		s.render(w, r, "analysis.html", analysisView{
			SearchQuery:   searchQuery,
			SearchResults: toViews(results),
		})
		return
	}

	totals, err := s.svc.Totals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Totals query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "analysis.html", analysisView{
		Totals:    newTotalsView(totals, "", ""),
		StartDate: startDate,
		EndDate:   endDate,
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	t, err := s.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to load transaction", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "edit.html", struct{ Transaction transactionView }{toView(t)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Missing rows 404 before any form handling.
	if _, err := s.svc.Get(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to load transaction", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	editURL := "/edit/" + strconv.FormatInt(id, 10)

	t, receipt, err := s.parseTransactionForm(w, r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Invalid update form", "error", err, "id", id)
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	if err := s.svc.Update(r.Context(), id, t, receipt); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update transaction", "error", err, "id", id)
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	slog.InfoContext(r.Context(), "Transaction updated", "id", id)
	http.Redirect(w, r, "/analysis", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "error", err, "id", id)
		http.Redirect(w, r, "/analysis", http.StatusSeeOther)
		return
	}

	slog.InfoContext(r.Context(), "Transaction deleted", "id", id)
	http.Redirect(w, r, "/analysis", http.StatusSeeOther)
}

// parseTransactionForm reads the shared add/update multipart form. The
// returned receipt is nil when no file was attached.
func (s *Server) parseTransactionForm(w http.ResponseWriter, r *http.Request) (core.Transaction, *services.ReceiptUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return core.Transaction{}, nil, err
	}

	name := sanitizeInput(r.FormValue("name"))
	tType, err := core.ParseTransactionType(r.FormValue("transaction_type"))
	if err != nil {
		return core.Transaction{}, nil, err
	}
	amount, err := core.ParseAmount(r.FormValue("amount"))
	if err != nil {
		return core.Transaction{}, nil, err
	}
	occurredAt, err := core.ParseDateTime(r.FormValue("date_time"))
	if err != nil {
		return core.Transaction{}, nil, err
	}

	t := core.Transaction{
		Name:       name,
		Type:       tType,
		Amount:     amount,
		OccurredAt: occurredAt,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, nil, err
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return t, nil, nil
		}
		return core.Transaction{}, nil, err
	}
	if header.Filename == "" {
		// Browsers send an empty part when no file is chosen.
		file.Close()
		return t, nil, nil
	}

	// The reader is drained by Save before ParseMultipartForm cleanup.
	return t, &services.ReceiptUpload{Filename: header.Filename, Data: file}, nil
}

package http

import (
	"log/slog"
	"net/http"

	"strata/internal/core"
)

type expenseResponse struct {
	ID          int64  `json:"id"`
	StrataID    int64  `json:"strata_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		StrataID:    e.StrataID,
		Date:        e.Date.String(),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Amount:      e.Amount.String(),
		Category:    e.Category,
	}
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}
	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		respondError(w, http.StatusUnprocessableEntity, "month must be 1-12")
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), strataID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list expenses", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StrataID    int64  `json:"strata_id"`
		Date        string `json:"date"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Category    string `json:"category"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	expense := core.Expense{
		StrataID:    req.StrataID,
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
	}
	if err := expense.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.CreateExpense(r.Context(), expense)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create expense", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}
	expense.ID = id

	// The expense is committed locally; export runs asynchronously and
	// has its own retry path, so a publish failure is not a request
	// failure.
	if s.publisher != nil {
		if err := s.publisher.PublishLedgerSync(r.Context(), id); err != nil {
			slog.ErrorContext(r.Context(), "Failed to publish ledger sync message", "id", id, "error", err)
		}
	}

	respondJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// handleExpenseExport streams one month of expenses as an XLSX workbook.
func (s *Server) handleExpenseExport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}
	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		respondError(w, http.StatusUnprocessableEntity, "month must be 1-12")
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), strataID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list expenses for export", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to export expenses")
		return
	}

	book, err := buildExpenseWorkbook(expenses)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build workbook", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to export expenses")
		return
	}
	defer book.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", exportFilename(year, month))
	if err := book.Write(w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to stream workbook", "error", err)
	}
}

// Package handler exposes expense and category endpoints over HTTP.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shlok2903/spendora/internal/domain/expense"
	"github.com/Shlok2903/spendora/pkg/interceptors"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	expenseSvc *expense.Service
	notes      *expense.NoteIndex
	logger     *slog.Logger
	now        func() time.Time
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(expenseSvc *expense.Service, notes *expense.NoteIndex, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenseSvc: expenseSvc, notes: notes, logger: logger, now: time.Now}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

func userIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok || idStr == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// List handles GET /api/v1/expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	expenses, err := h.expenseSvc.List(r.Context(), userID, 0)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list expenses", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve expenses")
		return
	}
	if expenses == nil {
		expenses = []expense.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

// Create handles POST /api/v1/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Note     string `json:"expense_note"`
		Amount   string `json:"expense_amount"`
		Datetime string `json:"transaction_datetime"`
		Category string `json:"category_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "Expense amount must be a positive number")
		return
	}

	at := h.now()
	if req.Datetime != "" {
		at, err = time.Parse(time.RFC3339, req.Datetime)
		if err != nil {
			respondError(w, http.StatusBadRequest, "transaction_datetime must be RFC 3339")
			return
		}
	}

	recorded, err := h.expenseSvc.Record(r.Context(), userID, req.Note, amount, at, req.Category)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create expense", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create expense")
		return
	}

	if err := h.notes.Index(recorded); err != nil {
		h.logger.WarnContext(r.Context(), "failed to index expense note", slog.String("error", err.Error()))
	}

	respondJSON(w, http.StatusCreated, recorded)
}

// Delete handles DELETE /api/v1/expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid expense id")
		return
	}

	if err := h.expenseSvc.Delete(r.Context(), userID, expenseID); err != nil {
		if errors.Is(err, expense.ErrExpenseNotFound) {
			respondError(w, http.StatusNotFound, "Expense not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to delete expense", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to delete expense")
		return
	}

	if err := h.notes.Remove(expenseID); err != nil {
		h.logger.WarnContext(r.Context(), "failed to deindex expense note", slog.String("error", err.Error()))
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Summary handles GET /api/v1/expenses/summary?period=week|month|year.
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	period := expense.SummaryPeriod(r.URL.Query().Get("period"))
	summary, err := h.expenseSvc.DashboardSummary(r.Context(), userID, period, h.now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to compute summary", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to compute expense summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Categories handles GET /api/v1/categories.
func (h *ExpenseHandler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	categories, err := h.expenseSvc.Categories(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list categories", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	if categories == nil {
		categories = []expense.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

// SuggestCategories handles GET /api/v1/categories/suggest?q=.
func (h *ExpenseHandler) SuggestCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	categories, err := h.expenseSvc.Categories(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list categories", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}

	respondJSON(w, http.StatusOK, expense.SuggestCategories(categories, q, 5))
}

// SearchNotes handles GET /api/v1/expenses/search?q=.
func (h *ExpenseHandler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	hits, err := h.notes.Search(userID, q, 20)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "note search failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	respondJSON(w, http.StatusOK, hits)
}

// Export handles GET /api/v1/expenses/export?format=csv|xlsx.
func (h *ExpenseHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	expenses, err := h.expenseSvc.List(r.Context(), userID, 0)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list expenses for export", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to export expenses")
		return
	}

	var buf bytes.Buffer
	format := r.URL.Query().Get("format")
	switch format {
	case "xlsx":
		if err := expense.WriteExcel(&buf, expenses); err != nil {
			h.logger.ErrorContext(r.Context(), "excel export failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Failed to export expenses")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	case "", "csv":
		if err := expense.WriteCSV(&buf, expenses); err != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Failed to export expenses")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported export format %q", format))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Package handler exposes income endpoints over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shlok2903/spendora/internal/domain/income"
	"github.com/Shlok2903/spendora/pkg/interceptors"
)

// IncomeHandler handles income endpoints.
type IncomeHandler struct {
	repo   *income.Repository
	logger *slog.Logger
}

// NewIncomeHandler creates a new income handler.
func NewIncomeHandler(repo *income.Repository, logger *slog.Logger) *IncomeHandler {
	return &IncomeHandler{repo: repo, logger: logger}
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

// List handles GET /api/v1/incomes.
func (h *IncomeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	incomes, err := h.repo.List(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list incomes", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve incomes")
		return
	}
	if incomes == nil {
		incomes = []income.Income{}
	}
	respondJSON(w, http.StatusOK, incomes)
}

// Create handles POST /api/v1/incomes.
func (h *IncomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		EverymonthPaymentDate int    `json:"everymonth_payment_date"`
		Amount                string `json:"amount"`
		Description           string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.EverymonthPaymentDate < 1 || req.EverymonthPaymentDate > 31 {
		respondError(w, http.StatusBadRequest, "Payment date must be between 1 and 31")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "Amount must be a positive number")
		return
	}
	if req.Description == "" {
		respondError(w, http.StatusBadRequest, "Description is required")
		return
	}

	in := &income.Income{
		UserID:                userID,
		EverymonthPaymentDate: req.EverymonthPaymentDate,
		Amount:                amount,
		Description:           req.Description,
	}
	if err := h.repo.Create(r.Context(), in); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create income", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create income")
		return
	}
	respondJSON(w, http.StatusCreated, in)
}

// Delete handles DELETE /api/v1/incomes/{id}.
func (h *IncomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	incomeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid income id")
		return
	}

	if err := h.repo.Delete(r.Context(), userID, incomeID); err != nil {
		if errors.Is(err, income.ErrIncomeNotFound) {
			respondError(w, http.StatusNotFound, "Income not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to delete income", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to delete income")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Total handles GET /api/v1/incomes/total.
func (h *IncomeHandler) Total(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	total, err := h.repo.Total(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to compute income total", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to compute income summary")
		return
	}
	respondJSON(w, http.StatusOK, total)
}

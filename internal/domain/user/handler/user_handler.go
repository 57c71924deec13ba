// Package handler exposes user profile endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Shlok2903/spendora/internal/domain/auth/common"
	"github.com/Shlok2903/spendora/internal/domain/auth/repository"
	"github.com/Shlok2903/spendora/pkg/interceptors"
)

// UserHandler handles profile endpoints for the authenticated user.
type UserHandler struct {
	users  repository.AuthRepository
	logger *slog.Logger
}

// NewUserHandler constructs a new handler.
func NewUserHandler(users repository.AuthRepository, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
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

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load profile", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Could not load profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// UpdateProfile handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondError(w, http.StatusBadRequest, "Username is required")
		return
	}

	if err := h.users.UpdateUsername(r.Context(), userID, username); err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to update profile", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Could not update profile")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load profile after update", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Could not load profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated",
		"user":    user,
	})
}

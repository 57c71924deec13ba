// Package handler exposes the auth service over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Shlok2903/spendora/internal/domain/auth/common"
	"github.com/Shlok2903/spendora/internal/domain/auth/service"
	"github.com/Shlok2903/spendora/pkg/interceptors"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
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

func sessionMetadata(r *http.Request) service.SessionMetadata {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return service.SessionMetadata{
		UserAgent: r.UserAgent(),
		ClientIP:  ip,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authSvc.Register(r.Context(), service.RegisterParams{
		Email:    strings.TrimSpace(strings.ToLower(req.Email)),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "An account with this email already exists")
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "Invalid email address")
		case errors.Is(err, service.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "Password must be at least 8 characters and contain a letter and a digit")
		default:
			h.logger.ErrorContext(r.Context(), "registration failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Registration failed. Please try again.")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Verification code sent to your email",
		"user":    user,
	})
}

// VerifyEmail handles POST /api/v1/auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authSvc.VerifyEmail(r.Context(),
		strings.TrimSpace(strings.ToLower(req.Email)), strings.TrimSpace(req.Code), sessionMetadata(r))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrInvalidOTP):
			respondError(w, http.StatusBadRequest, "Invalid verification code")
		case errors.Is(err, common.ErrOTPExpired):
			respondError(w, http.StatusBadRequest, "Verification code expired. Please request a new one.")
		default:
			h.logger.ErrorContext(r.Context(), "email verification failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Verification failed. Please try again.")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified",
		"user":    result.User,
		"tokens":  result.Tokens,
	})
}

// ResendCode handles POST /api/v1/auth/resend-code.
func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.authSvc.ResendVerificationCode(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil && !errors.Is(err, common.ErrUserNotFound) {
		h.logger.ErrorContext(r.Context(), "resend code failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Could not send verification code. Please try again.")
		return
	}

	// Same response whether or not the account exists.
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If the account exists, a verification code has been sent",
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authSvc.Login(r.Context(), service.LoginParams{
		Email:    strings.TrimSpace(strings.ToLower(req.Email)),
		Password: req.Password,
		Metadata: sessionMetadata(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, common.ErrNotVerified):
			respondError(w, http.StatusForbidden, "Please verify your email before logging in")
		default:
			h.logger.ErrorContext(r.Context(), "login failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Login failed. Please try again.")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    result.User,
		"tokens":  result.Tokens,
	})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tokens, err := h.authSvc.RefreshTokens(r.Context(), service.RefreshTokenParams{
		RefreshToken: req.RefreshToken,
		Metadata:     sessionMetadata(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken), errors.Is(err, common.ErrSessionNotFound):
			respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		default:
			h.logger.ErrorContext(r.Context(), "token refresh failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Token refresh failed. Please try again.")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tokens":  tokens,
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authSvc.Logout(r.Context(), req.RefreshToken); err != nil {
		respondError(w, http.StatusBadRequest, "Logout failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authSvc.RequestPasswordReset(r.Context(), strings.TrimSpace(strings.ToLower(req.Email))); err != nil {
		h.logger.ErrorContext(r.Context(), "password reset request failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Could not send reset code. Please try again.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If the account exists, a reset code has been sent",
	})
}

// ResetPassword handles POST /api/v1/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.authSvc.ResetPassword(r.Context(),
		strings.TrimSpace(strings.ToLower(req.Email)), strings.TrimSpace(req.Code), req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrInvalidOTP):
			respondError(w, http.StatusBadRequest, "Invalid reset code")
		case errors.Is(err, common.ErrOTPExpired):
			respondError(w, http.StatusBadRequest, "Reset code expired. Please request a new one.")
		case errors.Is(err, service.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "Password must be at least 8 characters and contain a letter and a digit")
		default:
			h.logger.ErrorContext(r.Context(), "password reset failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Password reset failed. Please try again.")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password updated. Please log in with your new password.",
	})
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	idStr, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok || idStr == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authSvc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			respondError(w, http.StatusBadRequest, "Current password is incorrect")
		case errors.Is(err, service.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "Password must be at least 8 characters and contain a letter and a digit")
		default:
			h.logger.ErrorContext(r.Context(), "change password failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "Could not change password. Please try again.")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password updated",
	})
}

// Package handler exposes the chat service over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Shlok2903/spendora/internal/domain/chat"
	"github.com/Shlok2903/spendora/internal/llm"
	"github.com/Shlok2903/spendora/pkg/interceptors"
)

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	chatSvc *chat.Service
	logger  *slog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *chat.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc, logger: logger}
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

// Message handles POST /api/v1/chat/message.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.chatSvc.HandleMessage(r.Context(), userID, req.Message)
	if err != nil {
		h.respondTurnError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": reply.Message,
	})
}

func (h *ChatHandler) respondTurnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "Message is required")
	case errors.Is(err, chat.ErrAmountUnclear):
		respondError(w, http.StatusBadRequest, "Could not understand the expense amount. Please try again with a clearer amount.")
	case errors.Is(err, chat.ErrMessageSave):
		respondError(w, http.StatusInternalServerError, "Failed to save your message. Please try again.")
	case errors.Is(err, llm.ErrUnavailable):
		h.logger.ErrorContext(r.Context(), "assistant unavailable", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Error communicating with AI service. Please try again later.")
	default:
		h.logger.ErrorContext(r.Context(), "chat turn failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}

// History handles GET /api/v1/chat/history.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	messages, err := h.chatSvc.History(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch chat history", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve chat history")
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}

	respondJSON(w, http.StatusOK, messages)
}

// ClearHistory handles POST /api/v1/chat/clear.
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	count, err := h.chatSvc.ClearHistory(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to clear chat history", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Error clearing chat history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully cleared %d messages from chat history", count),
	})
}

// InitMessage handles POST /api/v1/chat/init.
func (h *ChatHandler) InitMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	msg, created, err := h.chatSvc.InitWelcome(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create welcome message", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Error creating welcome message")
		return
	}

	status := "Welcome message already exists"
	if created {
		status = "Welcome message created"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": status,
		"id":      msg.ID,
	})
}

// Package handler exposes the chat assistant as POST /api/chat.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vamsi-1234/portfolio-engine/internal/chat"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
	"github.com/vamsi-1234/portfolio-engine/pkg/logger"
	"github.com/vamsi-1234/portfolio-engine/pkg/validate"
)

type Responder interface {
	Handle(ctx context.Context, message string, history []chat.Turn) (*chat.Reply, error)
}

type chatRequest struct {
	Message             string      `json:"message" validate:"required,max=2000"`
	ConversationHistory []chat.Turn `json:"conversationHistory" validate:"max=50,dive"`
}

type chatResponse struct {
	Success bool `json:"success"`
	*chat.Reply
}

type Handler struct {
	responder Responder
	logger    *slog.Logger
}

func New(responder Responder) *Handler {
	return &Handler{
		responder: responder,
		logger:    slog.Default().With("component", "chat-handler"),
	}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.Message(err, "invalid request"))
		return
	}

	reply, err := h.responder.Handle(ctx, req.Message, req.ConversationHistory)
	if err != nil {
		status := errors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(ctx).Error("chat failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "Failed to process request")
			return
		}
		h.writeError(w, status, errors.Message(err, "invalid request"))
		return
	}
	h.writeJSON(w, http.StatusOK, chatResponse{Success: true, Reply: reply})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"success": false, "error": message})
}

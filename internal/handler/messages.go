package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/internal/middleware"
	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/internal/service"
	"github.com/capitalize-ai/support-chat/pkg/logger"
)

// HistoryReader reads conversation history.
type HistoryReader interface {
	Messages(ctx context.Context, conversationID uint) ([]model.Message, error)
	Conversations(ctx context.Context, limit, offset int) (*model.ListConversationsResponse, error)
}

// MessageHandler handles message endpoints.
type MessageHandler struct {
	history HistoryReader
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(history HistoryReader, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		history: history,
		logger:  log,
	}
}

// List handles GET /api/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conversationID, err := middleware.ParseConversationID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := h.history.Messages(ctx, conversationID)
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get messages",
			zap.Uint("conversation_id", conversationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to get messages")
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

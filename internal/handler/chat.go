package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/internal/middleware"
	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/pkg/logger"
)

// TurnProcessor runs one chat turn.
type TurnProcessor interface {
	Handle(ctx context.Context, req *model.ChatRequest, caller string) (*model.ChatResponse, error)
}

// ChatHandler handles the chat turn endpoint.
type ChatHandler struct {
	turns         TurnProcessor
	requireSigned bool
	logger        *logger.Logger
}

// NewChatHandler creates a new chat handler. With requireSigned set, the
// body's user_id is ignored and only a bearer token identifies the caller.
func NewChatHandler(turns TurnProcessor, requireSigned bool, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		turns:         turns,
		requireSigned: requireSigned,
		logger:        log,
	}
}

// Send handles POST /api/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := h.caller(ctx, req.UserID)
	resp, err := h.turns.Handle(ctx, &req, caller)
	if err != nil {
		h.logger.WithContext(middleware.GetCorrelationID(ctx), caller).Error("failed to process message",
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// caller picks the identity a turn acts as. A verified token always wins
// over the body's user_id.
func (h *ChatHandler) caller(ctx context.Context, bodyUserID string) string {
	if tokenUser := middleware.GetUserID(ctx); tokenUser != "" {
		return tokenUser
	}
	if h.requireSigned {
		return ""
	}
	return strings.TrimSpace(bodyUserID)
}

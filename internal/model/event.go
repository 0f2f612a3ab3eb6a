package model

import (
	"time"
)

// TurnEvent is the audit record published after a turn commits.
type TurnEvent struct {
	ID             string            `json:"id"`
	ConversationID uint              `json:"conversation_id"`
	Owner          string            `json:"owner"`
	Intent         string            `json:"intent"`
	Entities       map[string]string `json:"entities,omitempty"`
	UserMessageID  uint              `json:"user_message_id"`
	BotMessageID   uint              `json:"bot_message_id"`
	RequiresLogin  bool              `json:"requires_login,omitempty"`
	NLUFallback    bool              `json:"nlu_fallback,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

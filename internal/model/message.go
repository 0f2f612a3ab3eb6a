package model

import (
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message represents one stored utterance in a conversation.
type Message struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"-"`
	Sender         Sender    `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`

	// Audit carries the classification and payload behind a bot reply.
	Audit *TurnAudit `json:"-"`
}

// TurnAudit is stored alongside bot messages.
type TurnAudit struct {
	Intent   string            `json:"intent"`
	Entities map[string]string `json:"entities,omitempty"`
	Payload  map[string]any    `json:"payload,omitempty"`
}

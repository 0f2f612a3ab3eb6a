// Package model defines data structures for the support chat platform.
package model

import (
	"time"
)

// AnonymousUser is the owner recorded on conversations started by a caller
// that has not signed in.
const AnonymousUser = "anonymous"

// Conversation represents a support chat thread.
type Conversation struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAnonymous reports whether the conversation has no identified owner yet.
func (c *Conversation) IsAnonymous() bool {
	return IsAnonymousIdentifier(c.UserID)
}

// IsAnonymousIdentifier reports whether id names no real identity.
func IsAnonymousIdentifier(id string) bool {
	return id == "" || id == AnonymousUser
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int64          `json:"total"`
	HasMore       bool           `json:"has_more"`
}

package service

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/support-chat/internal/model"
)

// HistoryRepository is the read side used by HistoryService.
type HistoryRepository interface {
	FindConversation(ctx context.Context, id uint) (*model.Conversation, error)
	ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error)
	ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, int64, error)
}

// HistoryService reads conversations and their messages.
type HistoryService struct {
	repo HistoryRepository
}

// NewHistoryService creates a history service.
func NewHistoryService(repo HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Messages returns a conversation's messages oldest first. A conversation
// that does not exist yields ErrNotFound.
func (s *HistoryService) Messages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	if _, err := s.repo.FindConversation(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	msgs, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return msgs, nil
}

// Conversations lists conversations by most recent activity.
func (s *HistoryService) Conversations(ctx context.Context, limit, offset int) (*model.ListConversationsResponse, error) {
	convs, total, err := s.repo.ListConversations(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return &model.ListConversationsResponse{
		Conversations: convs,
		Total:         total,
		HasMore:       int64(offset+len(convs)) < total,
	}, nil
}

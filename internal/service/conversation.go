// Package service implements the support chat turn pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/pkg/logger"
	"github.com/capitalize-ai/support-chat/pkg/metrics"
)

// ConversationRepository is the storage a ConversationStore writes through.
type ConversationRepository interface {
	FindConversation(ctx context.Context, id uint) (*model.Conversation, error)
	FindConversationForUpdate(ctx context.Context, id uint) (*model.Conversation, error)
	CreateConversation(ctx context.Context, owner string, at time.Time) (*model.Conversation, error)
	ClaimConversation(ctx context.Context, id uint, owner string) (bool, error)
	TouchConversation(ctx context.Context, id uint, at time.Time) error
	CreateMessage(ctx context.Context, msg *model.Message) error
}

// ConversationStore finds or creates the conversation for a turn and appends
// its messages. It is the only writer of conversations and messages.
type ConversationStore struct {
	repo   ConversationRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewConversationStore creates a store writing through repo.
func NewConversationStore(repo ConversationRepository, log *logger.Logger) *ConversationStore {
	return &ConversationStore{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// ResolveTurn returns the conversation for a turn. An existing id that does
// not resolve starts a new conversation. An anonymous conversation is claimed
// by the first real caller and never changes owner again.
func (s *ConversationStore) ResolveTurn(ctx context.Context, existingID *uint, caller string) (*model.Conversation, error) {
	now := s.now().UTC()

	var conv *model.Conversation
	if existingID != nil {
		found, err := s.repo.FindConversationForUpdate(ctx, *existingID)
		switch {
		case err == nil:
			conv = found
		case errors.Is(err, ErrNotFound):
			s.logger.Debug("conversation not found, starting a new one",
				zap.Uint("requested_id", *existingID),
			)
		default:
			return nil, fmt.Errorf("resolve conversation: %w", err)
		}
	}

	if conv == nil {
		return s.create(ctx, caller, now)
	}

	if conv.IsAnonymous() && !model.IsAnonymousIdentifier(caller) {
		if err := s.claim(ctx, conv, caller); err != nil {
			return nil, err
		}
	}

	if err := s.repo.TouchConversation(ctx, conv.ID, now); err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}
	conv.UpdatedAt = now
	return conv, nil
}

func (s *ConversationStore) create(ctx context.Context, caller string, now time.Time) (*model.Conversation, error) {
	owner, origin := caller, "identified"
	if model.IsAnonymousIdentifier(caller) {
		owner, origin = model.AnonymousUser, model.AnonymousUser
	}

	conv, err := s.repo.CreateConversation(ctx, owner, now)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	metrics.ConversationsTotal.WithLabelValues(origin).Inc()

	s.logger.Info("conversation created",
		zap.Uint("conversation_id", conv.ID),
		zap.String("origin", origin),
	)
	return conv, nil
}

func (s *ConversationStore) claim(ctx context.Context, conv *model.Conversation, caller string) error {
	claimed, err := s.repo.ClaimConversation(ctx, conv.ID, caller)
	if err != nil {
		return fmt.Errorf("claim conversation: %w", err)
	}
	if claimed {
		conv.UserID = caller
		metrics.ConversationUpgradesTotal.Inc()
		s.logger.Info("conversation claimed by identity",
			zap.Uint("conversation_id", conv.ID),
		)
		return nil
	}

	// Another turn claimed it first; report the committed owner.
	latest, err := s.repo.FindConversation(ctx, conv.ID)
	if err != nil {
		return fmt.Errorf("reload conversation: %w", err)
	}
	conv.UserID = latest.UserID
	return nil
}

// RecordMessage appends a message to conv. audit is only kept for bot replies.
func (s *ConversationStore) RecordMessage(ctx context.Context, conv *model.Conversation, sender model.Sender, text string, audit *model.TurnAudit) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      s.now().UTC(),
	}
	if sender == model.SenderBot {
		msg.Audit = audit
	}

	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("record %s message: %w", sender, err)
	}
	metrics.MessagesTotal.WithLabelValues(string(sender)).Inc()
	return msg, nil
}

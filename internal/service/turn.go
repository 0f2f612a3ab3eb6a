package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/internal/nlu"
	"github.com/capitalize-ai/support-chat/internal/store"
	"github.com/capitalize-ai/support-chat/pkg/logger"
	"github.com/capitalize-ai/support-chat/pkg/metrics"
	"github.com/capitalize-ai/support-chat/pkg/tracing"
)

// TurnPublisher receives the audit event of every committed turn.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event *model.TurnEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishTurn(context.Context, *model.TurnEvent) error { return nil }

// TurnOption configures a TurnService.
type TurnOption func(*TurnService)

// WithPublisher sets where turn events are sent.
func WithPublisher(p TurnPublisher) TurnOption {
	return func(s *TurnService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithOwnerFallback controls whether a turn without a caller acts as the
// conversation's owner. Enabled by default.
func WithOwnerFallback(enabled bool) TurnOption {
	return func(s *TurnService) {
		s.ownerFallback = enabled
	}
}

// TurnService runs one chat turn end to end.
type TurnService struct {
	tx            store.Transactor
	classifier    nlu.Classifier
	publisher     TurnPublisher
	logger        *logger.Logger
	ownerFallback bool
}

// NewTurnService creates a turn service.
func NewTurnService(tx store.Transactor, classifier nlu.Classifier, log *logger.Logger, opts ...TurnOption) *TurnService {
	s := &TurnService{
		tx:            tx,
		classifier:    classifier,
		publisher:     noopPublisher{},
		logger:        log,
		ownerFallback: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle classifies req.Message, persists the user and bot messages in one
// transaction and returns the reply. caller is the identity the request acts
// as, empty when anonymous.
func (s *TurnService) Handle(ctx context.Context, req *model.ChatRequest, caller string) (*model.ChatResponse, error) {
	start := time.Now()

	var requestedID uint
	if req.ConversationID != nil {
		requestedID = *req.ConversationID
	}
	ctx, span := tracing.StartTurnSpan(ctx, requestedID, !model.IsAnonymousIdentifier(caller))
	defer span.End()

	cls := s.classify(ctx, req.Message)

	var (
		resp  *model.ChatResponse
		event *model.TurnEvent
	)
	err := s.tx.Transaction(ctx, func(repo store.Repository) error {
		convs := NewConversationStore(repo, s.logger)

		conv, err := convs.ResolveTurn(ctx, req.ConversationID, caller)
		if err != nil {
			return err
		}

		userMsg, err := convs.RecordMessage(ctx, conv, model.SenderUser, req.Message, nil)
		if err != nil {
			return err
		}

		identifier := caller
		if model.IsAnonymousIdentifier(identifier) && s.ownerFallback {
			identifier = conv.UserID
		}
		dispatcher := NewDispatcher(NewAuthGate(repo), NewOrderLookup(repo))
		reply, err := dispatcher.Dispatch(ctx, cls.Intent, cls.Entities, CallerContext{Identifier: identifier})
		if err != nil {
			return err
		}

		botMsg, err := convs.RecordMessage(ctx, conv, model.SenderBot, reply.Text, &model.TurnAudit{
			Intent:   cls.Intent,
			Entities: cls.Entities,
			Payload:  reply.Payload,
		})
		if err != nil {
			return err
		}

		resp = &model.ChatResponse{
			ConversationID: conv.ID,
			Reply:          reply.Text,
			Intent:         cls.Intent,
			Entities:       cls.Entities,
			QuickReplies:   SuggestionsFor(cls.Intent),
			Payload:        reply.Payload,
		}
		requiresLogin, _ := reply.Payload[PayloadRequiresLogin].(bool)
		event = &model.TurnEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conv.ID,
			Owner:          conv.UserID,
			Intent:         cls.Intent,
			Entities:       cls.Entities,
			UserMessageID:  userMsg.ID,
			BotMessageID:   botMsg.ID,
			RequiresLogin:  requiresLogin,
			NLUFallback:    cls.Fallback,
			CreatedAt:      botMsg.CreatedAt,
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.Error("turn failed", zap.Error(err))
		return nil, fmt.Errorf("process turn: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("conversation.id", int64(resp.ConversationID)),
		attribute.String("turn.intent", resp.Intent),
	)
	s.publish(ctx, event)
	metrics.RecordTurn(resp.Intent, time.Since(start).Seconds())

	return resp, nil
}

func (s *TurnService) classify(ctx context.Context, text string) nlu.Classification {
	cls, err := s.classifier.Parse(ctx, text)
	if err != nil {
		s.logger.Warn("classification failed, using fallback intent", zap.Error(err))
		return nlu.Fallback()
	}
	if cls.Intent == "" {
		cls.Intent = nlu.FallbackIntent
	}
	if cls.Entities == nil {
		cls.Entities = map[string]string{}
	}
	return cls
}

// publish is best effort; the turn is already committed.
func (s *TurnService) publish(ctx context.Context, event *model.TurnEvent) {
	if err := s.publisher.PublishTurn(ctx, event); err != nil {
		metrics.TurnEventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("failed to publish turn event",
			zap.Uint("conversation_id", event.ConversationID),
			zap.Error(err),
		)
		return
	}
	metrics.TurnEventsPublished.WithLabelValues("ok").Inc()
}

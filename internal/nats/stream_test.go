package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/support-chat/internal/model"
)

type fakePublisher struct {
	PublishFunc func(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	return f.PublishFunc(ctx, subject, data, opts...)
}

func TestTurnSubject(t *testing.T) {
	assert.Equal(t, "support.turns.42", TurnSubject(42))
}

func TestPublishTurn(t *testing.T) {
	event := &model.TurnEvent{
		ID:             "0192a3b4-0000-7000-8000-000000000001",
		ConversationID: 42,
		Owner:          "alicetan@example.com",
		Intent:         "order_status",
		Entities:       map[string]string{"order_number": "ORD-1001"},
		UserMessageID:  7,
		BotMessageID:   8,
		CreatedAt:      time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}

	var gotSubject string
	var gotEvent model.TurnEvent
	var gotOpts int
	m := &StreamManager{pub: &fakePublisher{PublishFunc: func(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
		gotSubject = subject
		gotOpts = len(opts)
		require.NoError(t, json.Unmarshal(data, &gotEvent))
		return &jetstream.PubAck{Stream: StreamName, Sequence: 1}, nil
	}}}

	require.NoError(t, m.PublishTurn(context.Background(), event))
	assert.Equal(t, "support.turns.42", gotSubject)
	assert.Equal(t, 1, gotOpts, "message id option")
	assert.Equal(t, *event, gotEvent)
}

func TestPublishTurnError(t *testing.T) {
	boom := errors.New("nats: timeout")
	m := &StreamManager{pub: &fakePublisher{PublishFunc: func(context.Context, string, []byte, ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
		return nil, boom
	}}}

	err := m.PublishTurn(context.Background(), &model.TurnEvent{ConversationID: 1})
	assert.ErrorIs(t, err, boom)
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/internal/store"
)

type fakeUsers struct {
	FindUserByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	calls               int
}

func (f *fakeUsers) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.calls++
	if f.FindUserByEmailFunc == nil {
		return nil, store.ErrNotFound
	}
	return f.FindUserByEmailFunc(ctx, email)
}

type fakeOrders struct {
	FindOrderOwnedByFunc func(ctx context.Context, userID uint, orderNumber string) (*model.Order, error)
	calls                int
}

func (f *fakeOrders) FindOrderOwnedBy(ctx context.Context, userID uint, orderNumber string) (*model.Order, error) {
	f.calls++
	if f.FindOrderOwnedByFunc == nil {
		return nil, store.ErrNotFound
	}
	return f.FindOrderOwnedByFunc(ctx, userID, orderNumber)
}

var alice = &model.User{ID: 1, Email: "alicetan@example.com", Name: "Alice Tan", Role: model.RoleCustomer}

func aliceOnly(_ context.Context, email string) (*model.User, error) {
	if email == alice.Email {
		return alice, nil
	}
	return nil, fmt.Errorf("find user: %w", store.ErrNotFound)
}

func newTestDispatcher(users *fakeUsers, orders *fakeOrders) *Dispatcher {
	return NewDispatcher(NewAuthGate(users), NewOrderLookup(orders))
}

func TestDispatchStaticIntents(t *testing.T) {
	tests := []struct {
		intent string
		want   string
	}{
		{IntentGreet, greetText},
		{IntentAbusive, abusiveText},
		{IntentGoodbye, goodbyeText},
		{IntentProductInfo, productInfoText},
		{IntentReturns, returnsText},
		{IntentFallback, fallbackText},
		{"nlu_fallback", fallbackText},
		{"", fallbackText},
	}

	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			users, orders := &fakeUsers{}, &fakeOrders{}

			reply, err := newTestDispatcher(users, orders).Dispatch(context.Background(), tt.intent, nil, CallerContext{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Text)
			assert.Empty(t, reply.Payload)
			assert.NotNil(t, reply.Payload)
			assert.Zero(t, users.calls)
			assert.Zero(t, orders.calls)
		})
	}
}

func TestDispatchOrderStatusRequiresLogin(t *testing.T) {
	for _, caller := range []string{"", model.AnonymousUser, "ghost@example.com"} {
		t.Run(caller, func(t *testing.T) {
			users := &fakeUsers{FindUserByEmailFunc: aliceOnly}
			orders := &fakeOrders{}

			reply, err := newTestDispatcher(users, orders).Dispatch(
				context.Background(),
				IntentOrderStatus,
				map[string]string{EntityOrderNumber: "ORD-1001"},
				CallerContext{Identifier: caller},
			)
			require.NoError(t, err)
			assert.Equal(t, loginRequiredText, reply.Text)
			assert.Equal(t, map[string]any{PayloadRequiresLogin: true}, reply.Payload)
			assert.Zero(t, orders.calls, "no order lookup without identity")
			if model.IsAnonymousIdentifier(caller) {
				assert.Zero(t, users.calls, "anonymous callers skip the identity lookup")
			}
		})
	}
}

func TestDispatchOrderStatus(t *testing.T) {
	eta := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	etaText := "2026-10-21"

	owned := func(_ context.Context, userID uint, number string) (*model.Order, error) {
		switch {
		case userID == alice.ID && number == "ORD-1001":
			return &model.Order{OrderNumber: "ORD-1001", Status: model.OrderStatusProcessing, EstimatedDelivery: &eta, UserID: alice.ID}, nil
		case userID == alice.ID && number == "ORD-1011":
			return &model.Order{OrderNumber: "ORD-1011", Status: "On hold", UserID: alice.ID}, nil
		}
		return nil, fmt.Errorf("find order: %w", store.ErrNotFound)
	}

	tests := []struct {
		name        string
		entities    map[string]string
		wantText    string
		wantPayload map[string]any
		wantLookups int
	}{
		{
			name:        "missing order number",
			entities:    map[string]string{},
			wantText:    askOrderNumberText,
			wantPayload: map[string]any{PayloadNeedOrderNumber: true},
		},
		{
			name:        "blank order number",
			entities:    map[string]string{EntityOrderNumber: "  "},
			wantText:    askOrderNumberText,
			wantPayload: map[string]any{PayloadNeedOrderNumber: true},
		},
		{
			name:        "found with eta",
			entities:    map[string]string{EntityOrderNumber: "ORD-1001"},
			wantText:    "Order **ORD-1001** is currently **Processing**. Estimated delivery date is 2026-10-21.",
			wantPayload: map[string]any{PayloadOrder: model.OrderSummary{OrderNumber: "ORD-1001", Status: "Processing", EstimatedDelivery: &etaText}},
			wantLookups: 1,
		},
		{
			name:        "found without eta",
			entities:    map[string]string{EntityOrderNumber: "ORD-1011"},
			wantText:    "Order **ORD-1011** is currently **On hold**.",
			wantPayload: map[string]any{PayloadOrder: model.OrderSummary{OrderNumber: "ORD-1011", Status: "On hold"}},
			wantLookups: 1,
		},
		{
			name:        "not found",
			entities:    map[string]string{EntityOrderNumber: "ORD-9999"},
			wantText:    "I couldn't find order **ORD-9999** under your account. Can you check the number and try again?",
			wantPayload: map[string]any{},
			wantLookups: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{FindOrderOwnedByFunc: owned}
			d := newTestDispatcher(&fakeUsers{FindUserByEmailFunc: aliceOnly}, orders)

			reply, err := d.Dispatch(context.Background(), IntentOrderStatus, tt.entities, CallerContext{Identifier: alice.Email})
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, reply.Text)
			if diff := cmp.Diff(tt.wantPayload, reply.Payload); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantLookups, orders.calls)
		})
	}
}

func TestDispatchPropagatesStorageFailure(t *testing.T) {
	orders := &fakeOrders{FindOrderOwnedByFunc: func(context.Context, uint, string) (*model.Order, error) {
		return nil, fmt.Errorf("find order: %w", store.ErrStorage)
	}}
	d := newTestDispatcher(&fakeUsers{FindUserByEmailFunc: aliceOnly}, orders)

	_, err := d.Dispatch(context.Background(), IntentOrderStatus,
		map[string]string{EntityOrderNumber: "ORD-1001"},
		CallerContext{Identifier: alice.Email},
	)
	assert.ErrorIs(t, err, ErrStorage)

	users := &fakeUsers{FindUserByEmailFunc: func(context.Context, string) (*model.User, error) {
		return nil, fmt.Errorf("find user: %w", store.ErrStorage)
	}}
	_, err = newTestDispatcher(users, &fakeOrders{}).Dispatch(context.Background(), IntentOrderStatus, nil, CallerContext{Identifier: alice.Email})
	assert.ErrorIs(t, err, ErrStorage)
}

func TestKnownIntents(t *testing.T) {
	assert.Equal(t, []string{
		IntentAbusive,
		IntentGoodbye,
		IntentGreet,
		IntentOrderStatus,
		IntentProductInfo,
		IntentReturns,
	}, KnownIntents())
}

func TestSuggestionsFor(t *testing.T) {
	assert.Equal(t, defaultSuggestions, SuggestionsFor(IntentGreet))
	assert.Equal(t, []string{"How do I return a shirt?", "What is your refund policy?"}, SuggestionsFor(IntentReturns))

	for _, intent := range []string{"", IntentFallback, IntentGoodbye, "something else"} {
		got := SuggestionsFor(intent)
		assert.Equal(t, defaultSuggestions, got, intent)
	}

	got := SuggestionsFor(IntentGreet)
	got[0] = "changed"
	assert.Equal(t, "Ask about shirts", SuggestionsFor(IntentGreet)[0])
}

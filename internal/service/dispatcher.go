package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/capitalize-ai/support-chat/internal/model"
)

// Recognized intents.
const (
	IntentGreet       = "greet"
	IntentAbusive     = "abusive"
	IntentGoodbye     = "goodbye"
	IntentProductInfo = "product_info"
	IntentReturns     = "returns"
	IntentOrderStatus = "order_status"
	IntentFallback    = "fallback"
)

// EntityOrderNumber is the entity carrying an order number.
const EntityOrderNumber = "order_number"

// Payload keys.
const (
	PayloadRequiresLogin   = "requires_login"
	PayloadNeedOrderNumber = "need_order_number"
	PayloadOrder           = "order"
)

const (
	greetText       = "Hi! 👋 I'm your shirt support assistant. I can help with product info, order status, and returns. What would you like to do?"
	abusiveText     = "I'm here to help. Let's keep the conversation respectful. How can I assist you with your order or shirts?"
	goodbyeText     = "Thanks for chatting with us! If you need anything else, just open the chat again. 😊"
	productInfoText = "We sell men's and women's shirts in sizes XS–XXL. Most shirts are 100% cotton or cotton blends. What would you like to know: size, colour, or material?"
	returnsText     = "Our return policy: you can return or exchange shirts within 30 days of delivery, as long as tags are intact and the shirt is unworn. Would you like steps for starting a return?"
	fallbackText    = "I'm not sure I understood that. I can help with product information, order status, and returns. Could you rephrase or pick one of the suggestions?"

	loginRequiredText   = "Please sign in to check your order status. Once you're logged in, I can look up your orders."
	askOrderNumberText  = "Sure! Please provide your order number (e.g., ORD12345) so I can check the status."
	orderNotFoundFormat = "I couldn't find order **%s** under your account. Can you check the number and try again?"
	orderFoundFormat    = "Order **%s** is currently **%s**."
	orderETAFormat      = " Estimated delivery date is %s."
)

// CallerContext carries who is asking, kept apart from classifier entities.
type CallerContext struct {
	// Identifier is an identity email or empty/anonymous.
	Identifier string
}

// Reply is the outcome of dispatching one intent.
type Reply struct {
	Text    string
	Payload map[string]any
}

// IntentHandler builds the reply for one intent. identity is non-nil only for
// intents that require authentication.
type IntentHandler func(ctx context.Context, d *Dispatcher, entities map[string]string, identity *model.User) (Reply, error)

// handlers is the dispatch table. New intents are added here and, when they
// need an identity, in authRequired.
var handlers = map[string]IntentHandler{
	IntentGreet:       staticReply(greetText),
	IntentAbusive:     staticReply(abusiveText),
	IntentGoodbye:     staticReply(goodbyeText),
	IntentProductInfo: staticReply(productInfoText),
	IntentReturns:     staticReply(returnsText),
	IntentOrderStatus: handleOrderStatus,
	IntentFallback:    staticReply(fallbackText),
}

// Dispatcher maps a classified utterance to a reply. It reads identities and
// orders through the handles it was built with.
type Dispatcher struct {
	gate   *AuthGate
	orders *OrderLookup
}

// NewDispatcher creates a dispatcher over the given gate and order lookup.
func NewDispatcher(gate *AuthGate, orders *OrderLookup) *Dispatcher {
	return &Dispatcher{gate: gate, orders: orders}
}

// Dispatch produces the reply for intent. Missing identities and orders are
// normal outcomes; only storage failures return an error.
func (d *Dispatcher) Dispatch(ctx context.Context, intent string, entities map[string]string, caller CallerContext) (Reply, error) {
	handle, ok := handlers[intent]
	if !ok {
		intent = IntentFallback
		handle = handlers[IntentFallback]
	}

	var identity *model.User
	if d.gate.RequiresAuth(intent) {
		user, err := d.gate.ResolveIdentity(ctx, caller.Identifier)
		switch {
		case errors.Is(err, ErrNotFound):
			return Reply{
				Text:    loginRequiredText,
				Payload: map[string]any{PayloadRequiresLogin: true},
			}, nil
		case err != nil:
			return Reply{}, fmt.Errorf("dispatch %s: %w", intent, err)
		}
		identity = user
	}

	reply, err := handle(ctx, d, entities, identity)
	if err != nil {
		return Reply{}, fmt.Errorf("dispatch %s: %w", intent, err)
	}
	if reply.Payload == nil {
		reply.Payload = map[string]any{}
	}
	return reply, nil
}

func staticReply(text string) IntentHandler {
	return func(context.Context, *Dispatcher, map[string]string, *model.User) (Reply, error) {
		return Reply{Text: text, Payload: map[string]any{}}, nil
	}
}

func handleOrderStatus(ctx context.Context, d *Dispatcher, entities map[string]string, identity *model.User) (Reply, error) {
	number := strings.TrimSpace(entities[EntityOrderNumber])
	if number == "" {
		return Reply{
			Text:    askOrderNumberText,
			Payload: map[string]any{PayloadNeedOrderNumber: true},
		}, nil
	}

	order, err := d.orders.FindOwned(ctx, identity, number)
	if errors.Is(err, ErrNotFound) {
		return Reply{
			Text:    fmt.Sprintf(orderNotFoundFormat, number),
			Payload: map[string]any{},
		}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	summary := order.Summary()
	text := fmt.Sprintf(orderFoundFormat, order.OrderNumber, order.Status)
	if summary.EstimatedDelivery != nil {
		text += fmt.Sprintf(orderETAFormat, *summary.EstimatedDelivery)
	}
	return Reply{
		Text:    text,
		Payload: map[string]any{PayloadOrder: summary},
	}, nil
}

// KnownIntents lists the intents with a dedicated handler, fallback excluded.
func KnownIntents() []string {
	intents := make([]string, 0, len(handlers))
	for intent := range handlers {
		if intent != IntentFallback {
			intents = append(intents, intent)
		}
	}
	sort.Strings(intents)
	return intents
}

package service

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/support-chat/internal/model"
)

// IdentityFinder reads identities.
type IdentityFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// authRequired lists the intents that need a signed-in identity.
var authRequired = map[string]bool{
	IntentOrderStatus: true,
}

// AuthGate decides which intents need an identity and resolves callers.
type AuthGate struct {
	users IdentityFinder
}

// NewAuthGate creates a gate reading identities from users.
func NewAuthGate(users IdentityFinder) *AuthGate {
	return &AuthGate{users: users}
}

// RequiresAuth reports whether intent may only run for a known identity.
func (g *AuthGate) RequiresAuth(intent string) bool {
	return authRequired[intent]
}

// ResolveIdentity looks up the caller. Anonymous or empty identifiers return
// ErrNotFound without touching storage.
func (g *AuthGate) ResolveIdentity(ctx context.Context, caller string) (*model.User, error) {
	if model.IsAnonymousIdentifier(caller) {
		return nil, fmt.Errorf("resolve identity: %w", ErrNotFound)
	}
	user, err := g.users.FindUserByEmail(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return user, nil
}

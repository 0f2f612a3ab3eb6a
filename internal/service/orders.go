package service

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/support-chat/internal/model"
)

// OwnedOrderFinder reads orders scoped to their owner.
type OwnedOrderFinder interface {
	FindOrderOwnedBy(ctx context.Context, userID uint, orderNumber string) (*model.Order, error)
}

// OrderLookup resolves orders on behalf of an identity. It never mutates.
type OrderLookup struct {
	orders OwnedOrderFinder
}

// NewOrderLookup creates a lookup reading from orders.
func NewOrderLookup(orders OwnedOrderFinder) *OrderLookup {
	return &OrderLookup{orders: orders}
}

// FindOwned returns the order only when identity owns it. An order belonging
// to another account is reported as ErrNotFound, same as a missing one.
func (l *OrderLookup) FindOwned(ctx context.Context, identity *model.User, orderNumber string) (*model.Order, error) {
	if identity == nil {
		return nil, fmt.Errorf("find order %s: %w", orderNumber, ErrNotFound)
	}
	order, err := l.orders.FindOrderOwnedBy(ctx, identity.ID, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderNumber, err)
	}
	return order, nil
}

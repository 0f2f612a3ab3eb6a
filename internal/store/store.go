// Package store persists conversations, messages, users and orders with GORM.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/capitalize-ai/support-chat/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps every failure of the underlying database.
	ErrStorage = errors.New("storage failure")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// Repository is the data access surface used by one turn or one request.
type Repository interface {
	FindConversation(ctx context.Context, id uint) (*model.Conversation, error)
	// FindConversationForUpdate locks the row for the rest of the transaction
	// where the database supports row locks.
	FindConversationForUpdate(ctx context.Context, id uint) (*model.Conversation, error)
	CreateConversation(ctx context.Context, owner string, at time.Time) (*model.Conversation, error)
	// ClaimConversation sets the owner only while it is still anonymous and
	// reports whether the row changed.
	ClaimConversation(ctx context.Context, id uint, owner string) (bool, error)
	TouchConversation(ctx context.Context, id uint, at time.Time) error
	ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, int64, error)

	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error)

	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindOrderOwnedBy(ctx context.Context, userID uint, orderNumber string) (*model.Order, error)

	CreateUser(ctx context.Context, user *model.User) error
	CreateOrder(ctx context.Context, order *model.Order) error
}

// Transactor runs fn against a Repository bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

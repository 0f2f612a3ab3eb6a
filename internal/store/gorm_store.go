package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/capitalize-ai/support-chat/internal/model"
)

// GormStore implements Repository and Transactor on top of GORM. A GormStore
// created by Transaction is bound to that transaction.
type GormStore struct {
	db *gorm.DB
}

// New creates a store backed by the provided DB handle.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var (
	_ Repository = (*GormStore)(nil)
	_ Transactor = (*GormStore)(nil)
)

// Transaction runs fn inside a database transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&GormStore{db: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return storageError("commit transaction", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageError("retrieve sql db", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindConversation retrieves a conversation by ID.
func (s *GormStore) FindConversation(ctx context.Context, id uint) (*model.Conversation, error) {
	var rec ConversationRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, lookupError("find conversation", err)
	}
	return rec.toModel(), nil
}

// FindConversationForUpdate retrieves a conversation and locks its row.
func (s *GormStore) FindConversationForUpdate(ctx context.Context, id uint) (*model.Conversation, error) {
	var rec ConversationRecord
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, id).Error
	if err != nil {
		return nil, lookupError("find conversation for update", err)
	}
	return rec.toModel(), nil
}

// CreateConversation inserts a conversation owned by owner.
func (s *GormStore) CreateConversation(ctx context.Context, owner string, at time.Time) (*model.Conversation, error) {
	rec := ConversationRecord{
		UserID:    owner,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, writeError("create conversation", err)
	}
	return rec.toModel(), nil
}

// ClaimConversation moves an anonymous conversation to owner.
func (s *GormStore) ClaimConversation(ctx context.Context, id uint, owner string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&ConversationRecord{}).
		Where("id = ? AND user_id = ?", id, model.AnonymousUser).
		UpdateColumn("user_id", owner)
	if res.Error != nil {
		return false, writeError("claim conversation", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// TouchConversation refreshes the last-activity timestamp.
func (s *GormStore) TouchConversation(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&ConversationRecord{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
	if err != nil {
		return writeError("touch conversation", err)
	}
	return nil
}

// ListConversations returns conversations by most recent activity.
func (s *GormStore) ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&ConversationRecord{}).Count(&total).Error; err != nil {
		return nil, 0, storageError("count conversations", err)
	}

	var recs []ConversationRecord
	err := s.db.WithContext(ctx).
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, 0, storageError("list conversations", err)
	}

	convs := make([]model.Conversation, 0, len(recs))
	for i := range recs {
		convs = append(convs, *recs[i].toModel())
	}
	return convs, total, nil
}

// CreateMessage appends a message and fills in its ID.
func (s *GormStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	rec, err := newMessageRecord(msg)
	if err != nil {
		return fmt.Errorf("encode message metadata: %w", err)
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return writeError("create message", err)
	}
	msg.ID = rec.ID
	return nil
}

// ListMessages returns a conversation's messages oldest first.
func (s *GormStore) ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var recs []MessageRecord
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, storageError("list messages", err)
	}

	msgs := make([]model.Message, 0, len(recs))
	for i := range recs {
		msgs = append(msgs, recs[i].toModel())
	}
	return msgs, nil
}

// FindUserByEmail retrieves an identity by its unique email.
func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var rec UserRecord
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, lookupError("find user", err)
	}
	return rec.toModel(), nil
}

// FindOrderOwnedBy retrieves an order matching both number and owner in a
// single query, so orders of other users are indistinguishable from missing
// ones.
func (s *GormStore) FindOrderOwnedBy(ctx context.Context, userID uint, orderNumber string) (*model.Order, error) {
	var rec OrderRecord
	err := s.db.WithContext(ctx).
		Where("order_number = ? AND user_id = ?", orderNumber, userID).
		First(&rec).Error
	if err != nil {
		return nil, lookupError("find order", err)
	}
	return rec.toModel(), nil
}

// CreateUser inserts an identity and fills in its ID.
func (s *GormStore) CreateUser(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.RoleCustomer
	}
	rec := UserRecord{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		Role:         string(role),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return writeError("create user", err)
	}
	user.ID = rec.ID
	user.Role = role
	return nil
}

// CreateOrder inserts an order and fills in its ID.
func (s *GormStore) CreateOrder(ctx context.Context, order *model.Order) error {
	if order.UserID == 0 {
		return fmt.Errorf("create order %s: owning user is required", order.OrderNumber)
	}
	rec := OrderRecord{
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		EstimatedDelivery: order.EstimatedDelivery,
		CustomerName:      order.CustomerName,
		UserID:            order.UserID,
	}
	if rec.Status == "" {
		rec.Status = model.OrderStatusProcessing
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&rec).Error; err != nil {
		return writeError("create order", err)
	}
	order.ID = rec.ID
	order.Status = rec.Status
	return nil
}

// deleteDemoData removes all orders and users.
func (s *GormStore) deleteDemoData(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&OrderRecord{}).Error; err != nil {
		return storageError("delete orders", err)
	}
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&UserRecord{}).Error; err != nil {
		return storageError("delete users", err)
	}
	return nil
}

func lookupError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return storageError(op, err)
}

func writeError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return storageError(op, err)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

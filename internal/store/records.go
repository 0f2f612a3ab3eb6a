package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/capitalize-ai/support-chat/internal/model"
)

// ConversationRecord is the persisted conversation row.
type ConversationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"size:254;not null;index;default:anonymous"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for ConversationRecord.
func (ConversationRecord) TableName() string { return "conversations" }

func (r *ConversationRecord) toModel() *model.Conversation {
	return &model.Conversation{
		ID:        r.ID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// MessageRecord is the persisted message row. Metadata holds the turn audit
// for bot messages and is null for user messages.
type MessageRecord struct {
	ID             uint               `gorm:"primaryKey"`
	ConversationID uint               `gorm:"not null;index:idx_messages_conversation_created,priority:1"`
	Sender         string             `gorm:"size:16;not null;index"`
	Text           string             `gorm:"type:text;not null"`
	Metadata       datatypes.JSON     `gorm:"column:metadata"`
	CreatedAt      time.Time          `gorm:"not null;index:idx_messages_conversation_created,priority:2"`
	Conversation   ConversationRecord `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for MessageRecord.
func (MessageRecord) TableName() string { return "messages" }

func newMessageRecord(m *model.Message) (*MessageRecord, error) {
	rec := &MessageRecord{
		ConversationID: m.ConversationID,
		Sender:         string(m.Sender),
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}
	if m.Audit != nil {
		raw, err := json.Marshal(m.Audit)
		if err != nil {
			return nil, err
		}
		rec.Metadata = datatypes.JSON(raw)
	}
	return rec, nil
}

func (r *MessageRecord) toModel() model.Message {
	msg := model.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Sender:         model.Sender(r.Sender),
		Text:           r.Text,
		CreatedAt:      r.CreatedAt,
	}
	if len(r.Metadata) > 0 && string(r.Metadata) != "null" {
		var audit model.TurnAudit
		if err := json.Unmarshal(r.Metadata, &audit); err == nil {
			msg.Audit = &audit
		}
	}
	return msg
}

// UserRecord is the persisted identity row.
type UserRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:254;not null;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null"`
	Name         string `gorm:"size:128"`
	Role         string `gorm:"size:16;not null;default:customer"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the database table name for UserRecord.
func (UserRecord) TableName() string { return "users" }

func (r *UserRecord) toModel() *model.User {
	role := model.Role(r.Role)
	if role == "" {
		role = model.RoleCustomer
	}
	return &model.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		Role:         role,
	}
}

// OrderRecord is the persisted order row; every order belongs to one user.
type OrderRecord struct {
	ID                uint       `gorm:"primaryKey"`
	OrderNumber       string     `gorm:"size:64;not null;uniqueIndex"`
	Status            string     `gorm:"size:32;not null;default:Processing"`
	EstimatedDelivery *time.Time `gorm:"type:date"`
	CustomerName      string     `gorm:"size:128"`
	UserID            uint       `gorm:"not null;index"`
	User              UserRecord `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the database table name for OrderRecord.
func (OrderRecord) TableName() string { return "orders" }

func (r *OrderRecord) toModel() *model.Order {
	return &model.Order{
		ID:                r.ID,
		OrderNumber:       r.OrderNumber,
		Status:            r.Status,
		EstimatedDelivery: r.EstimatedDelivery,
		CustomerName:      r.CustomerName,
		UserID:            r.UserID,
	}
}

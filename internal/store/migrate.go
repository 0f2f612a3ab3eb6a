package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/pkg/logger"
)

// AutoMigrate creates or updates the schema for all record types.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(
		&UserRecord{},
		&OrderRecord{},
		&ConversationRecord{},
		&MessageRecord{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// DemoUser is a fixed account created by SeedDemo.
type DemoUser struct {
	Name  string
	Email string
}

// DemoOrder is a fixed order created by SeedDemo. ETA is relative to the seed day.
type DemoOrder struct {
	OrderNumber string
	Status      string
	DaysDelta   int
}

// DemoPassword is shared by every seeded account.
const DemoPassword = "password123"

// DemoUsers are the accounts created by SeedDemo.
var DemoUsers = []DemoUser{
	{Name: "Alice Tan", Email: "alicetan@example.com"},
	{Name: "Bob Lim", Email: "boblim@example.com"},
	{Name: "Charlie Lee", Email: "charlielee@example.com"},
	{Name: "Daniel Ng", Email: "danielng@example.com"},
	{Name: "Emily Wong", Email: "emilywong@example.com"},
	{Name: "Fiona Chong", Email: "fionachong@example.com"},
	{Name: "Grace Koh", Email: "gracekoh@example.com"},
	{Name: "Hannah Goh", Email: "hannahgoh@example.com"},
	{Name: "Ivan Chan", Email: "ivanchan@example.com"},
	{Name: "Jacob Teo", Email: "jacobteo@example.com"},
}

// DemoOrders are the orders created by SeedDemo, assigned round-robin to DemoUsers.
var DemoOrders = []DemoOrder{
	{OrderNumber: "ORD-1001", Status: model.OrderStatusProcessing, DaysDelta: 5},
	{OrderNumber: "ORD-1002", Status: model.OrderStatusShipped, DaysDelta: 3},
	{OrderNumber: "ORD-1003", Status: model.OrderStatusDelivered, DaysDelta: -7},
	{OrderNumber: "ORD-1004", Status: model.OrderStatusOutForDelivery, DaysDelta: 1},
	{OrderNumber: "ORD-1005", Status: model.OrderStatusProcessing, DaysDelta: 10},
	{OrderNumber: "ORD-1006", Status: model.OrderStatusShipped, DaysDelta: 4},
	{OrderNumber: "ORD-1007", Status: model.OrderStatusDelivered, DaysDelta: -2},
	{OrderNumber: "ORD-1008", Status: model.OrderStatusProcessing, DaysDelta: 8},
	{OrderNumber: "ORD-1009", Status: model.OrderStatusShipped, DaysDelta: 2},
	{OrderNumber: "ORD-1010", Status: model.OrderStatusDelivered, DaysDelta: -14},
}

// SeedResult reports what SeedDemo wrote.
type SeedResult struct {
	Users  int
	Orders int
}

// SeedDemo wipes users and orders and recreates the demo fixtures in one
// transaction. hash turns the demo password into the stored credential.
func SeedDemo(ctx context.Context, s *GormStore, hash func(string) (string, error), today time.Time, log *logger.Logger) (SeedResult, error) {
	passwordHash, err := hash(DemoPassword)
	if err != nil {
		return SeedResult{}, fmt.Errorf("hash demo password: %w", err)
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var result SeedResult
	err = s.Transaction(ctx, func(repo Repository) error {
		tx := repo.(*GormStore)
		if err := tx.deleteDemoData(ctx); err != nil {
			return err
		}
		log.Info("deleted existing users and orders")

		users := make([]*model.User, 0, len(DemoUsers))
		for _, u := range DemoUsers {
			user := &model.User{
				Email:        u.Email,
				Name:         u.Name,
				PasswordHash: passwordHash,
				Role:         model.RoleCustomer,
			}
			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}
			users = append(users, user)
		}
		result.Users = len(users)

		for i, o := range DemoOrders {
			owner := users[i%len(users)]
			eta := day.AddDate(0, 0, o.DaysDelta)
			order := &model.Order{
				OrderNumber:       o.OrderNumber,
				Status:            o.Status,
				EstimatedDelivery: &eta,
				CustomerName:      owner.Name,
				UserID:            owner.ID,
			}
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			log.Debug("seeded order",
				zap.String("order_number", order.OrderNumber),
				zap.String("owner", owner.Email),
			)
		}
		result.Orders = len(DemoOrders)
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	log.Info("seeding complete",
		zap.Int("users", result.Users),
		zap.Int("orders", result.Orders),
	)
	return result, nil
}

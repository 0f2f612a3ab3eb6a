// Package storetest provides throwaway in-memory stores for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	gormlogger "gorm.io/gorm/logger"

	"github.com/capitalize-ai/support-chat/internal/store"
)

// New opens a migrated in-memory SQLite store that is closed when the test ends.
func New(tb testing.TB) *store.GormStore {
	tb.Helper()

	db, err := store.Open(store.Config{
		URL:      "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: gormlogger.Silent,
	})
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	if err := store.AutoMigrate(context.Background(), db); err != nil {
		tb.Fatalf("migrate test database: %v", err)
	}

	s := store.New(db)
	tb.Cleanup(func() { _ = s.Close() })
	return s
}

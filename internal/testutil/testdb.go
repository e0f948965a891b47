package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Likio3000/pomodoroAPP/internal/schema"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
)

// NewTestDB creates an in-memory SQLite database with all tables created.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(database.Config{DSN: "sqlite::memory:", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := schema.Ensure(context.Background(), db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(db *sqlx.DB) database.UnitOfWork {
	return database.NewUnitOfWork(db)
}

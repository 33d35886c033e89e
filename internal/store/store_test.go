package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/dukerupert/shoplist/internal/database"
	"github.com/dukerupert/shoplist/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, name string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), fmt.Sprintf("%s@example.com", name), name, "x")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

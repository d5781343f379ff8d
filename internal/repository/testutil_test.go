package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/devtrack/internal/database"
	"github.com/sumire/devtrack/internal/domain"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, filepath.Join(t.TempDir(), "devtrack.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, users *UserRepository, name string, role domain.Role) *domain.User {
	t.Helper()
	u, err := users.Create(context.Background(), domain.User{Name: name, Email: name + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("Create(%s) error: %v", name, err)
	}
	return u
}

func ptr[T any](v T) *T { return &v }

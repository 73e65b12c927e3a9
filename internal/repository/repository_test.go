package repository_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"codewars-tracker/internal/database"
	"codewars-tracker/internal/repository"
)

// Each test gets a fresh in-memory database with the real migrations applied.
func setupTestDB(t *testing.T) (*repository.UserRepository, *repository.GroupRepository) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	logger := zerolog.Nop()
	return repository.NewUserRepository(db, logger), repository.NewGroupRepository(db, logger)
}

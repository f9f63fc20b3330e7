// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/monocle-dev/taskdeck/db"
	"github.com/monocle-dev/taskdeck/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database in a per-test temp directory.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Connect("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.MigrateDatabase(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return conn
}

// CreateUser inserts a local account with a bcrypt hash of password.
func CreateUser(t *testing.T, conn *gorm.DB, username, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	hashed := string(hash)
	user := &models.User{Username: username, Password: &hashed}

	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}

	return user
}

// CreateTask inserts a task owned by userID.
func CreateTask(t *testing.T, conn *gorm.DB, userID uint, title string, priority models.Priority) *models.Task {
	t.Helper()

	task := &models.Task{Title: title, Priority: priority, UserID: userID}

	if err := conn.Create(task).Error; err != nil {
		t.Fatalf("Failed to create task %s: %v", title, err)
	}

	return task
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/monocle-dev/taskdeck/internal/models"
	"github.com/monocle-dev/taskdeck/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newLocalService(t *testing.T) (*LocalService, *gorm.DB) {
	t.Helper()

	conn := testutil.NewDB(t)
	s := NewLocalService(conn)
	s.cost = bcrypt.MinCost

	return s, conn
}

func countUsers(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := conn.Model(&models.User{}).Count(&n).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}

	return n
}

func TestRegisterThenAuthenticate(t *testing.T) {
	s, _ := newLocalService(t)
	ctx := context.Background()

	pairs := []struct{ username, password string }{
		{"alice", "pw1"},
		{"Bob", "correct horse battery staple"},
		{"carol@example.com", "p@ss"},
	}

	for _, p := range pairs {
		created, err := s.Register(ctx, p.username, p.password)
		if err != nil {
			t.Fatalf("Register(%q) error = %v", p.username, err)
		}

		if created.OAuthProvider != nil || created.OAuthID != nil {
			t.Errorf("local account %q has OAuth fields set", p.username)
		}
		if created.Password == nil || *created.Password == p.password {
			t.Errorf("password for %q not hashed", p.username)
		}

		user, err := s.Authenticate(ctx, p.username, p.password)
		if err != nil {
			t.Fatalf("Authenticate(%q) error = %v", p.username, err)
		}
		if user.ID != created.ID {
			t.Errorf("Authenticate(%q) returned user %d, want %d", p.username, user.ID, created.ID)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s, conn := newLocalService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	before := countUsers(t, conn)

	_, err := s.Register(ctx, "alice", "pw2")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Register(duplicate) error = %v, want ErrUsernameTaken", err)
	}

	if after := countUsers(t, conn); after != before {
		t.Errorf("user count changed from %d to %d", before, after)
	}

	// The original password still works
	if _, err := s.Authenticate(ctx, "alice", "pw1"); err != nil {
		t.Errorf("Authenticate(pw1) error = %v", err)
	}
	if _, err := s.Authenticate(ctx, "alice", "pw2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(pw2) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterIsCaseSensitive(t *testing.T) {
	s, _ := newLocalService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("Register(alice) error = %v", err)
	}

	if _, err := s.Register(ctx, "Alice", "pw1"); err != nil {
		t.Fatalf("Register(Alice) error = %v", err)
	}
}

func TestRegisterMissingCredentials(t *testing.T) {
	s, _ := newLocalService(t)
	ctx := context.Background()

	for _, tt := range []struct{ username, password string }{{"", "pw"}, {"   ", "pw"}, {"alice", ""}} {
		if _, err := s.Register(ctx, tt.username, tt.password); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("Register(%q, %q) error = %v, want ErrMissingCredentials", tt.username, tt.password, err)
		}
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	s, conn := newLocalService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	provider, subject := ProviderGoogle, "sub-1"
	oauthUser := models.User{Username: "bob@x.com", OAuthProvider: &provider, OAuthID: &subject}
	if err := conn.Create(&oauthUser).Error; err != nil {
		t.Fatalf("create oauth user: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"Given wrong password", "alice", "wrong"},
		{"Given unknown user", "mallory", "pw1"},
		{"Given OAuth-only account", "bob@x.com", ""},
		{"Given different case", "ALICE", "pw1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.Authenticate(ctx, tt.username, tt.password)
			if user != nil {
				t.Errorf("Authenticate() returned user %v", user)
			}
			if err != ErrInvalidCredentials {
				t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

// insertBeforeCreate makes the next users insert lose a race: a row with the
// same username is written just before GORM's own INSERT runs.
func insertBeforeCreate(t *testing.T, conn *gorm.DB, username string, oauth bool) {
	t.Helper()

	fired := false

	err := conn.Callback().Create().Before("gorm:create").Register("test:concurrent_insert", func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "users" {
			return
		}
		fired = true

		now := time.Now()
		if oauth {
			tx.Session(&gorm.Session{NewDB: true}).Exec(
				"INSERT INTO users (username, oauth_provider, oauth_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
				username, ProviderGoogle, "sub-first", now, now)
		} else {
			tx.Session(&gorm.Session{NewDB: true}).Exec(
				"INSERT INTO users (username, password, created_at, updated_at) VALUES (?, ?, ?, ?)",
				username, "x", now, now)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

func TestRegisterLosingRaceReportsUsernameTaken(t *testing.T) {
	conn := testutil.NewDB(t)
	s := NewLocalService(conn.Session(&gorm.Session{SkipDefaultTransaction: true}))
	s.cost = bcrypt.MinCost

	insertBeforeCreate(t, conn, "alice", false)

	_, err := s.Register(context.Background(), "alice", "pw1")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Register() error = %v, want ErrUsernameTaken", err)
	}

	if n := countUsers(t, conn); n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

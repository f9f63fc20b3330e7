package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/monocle-dev/taskdeck/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// dummyHash is compared against when the username does not exist so that
// both failure paths spend the same bcrypt time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskdeck-dummy-password"), bcrypt.DefaultCost)

type LocalService struct {
	db   *gorm.DB
	cost int
}

func NewLocalService(db *gorm.DB) *LocalService {
	return &LocalService{db: db, cost: bcrypt.DefaultCost}
}

// Register creates a password account. Usernames are matched exactly.
func (s *LocalService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var existingUser models.User

	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existingUser).Error

	if err == nil {
		return nil, ErrUsernameTaken
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)

	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	hashed := string(passwordHash)

	newUser := models.User{
		Username: username,
		Password: &hashed,
	}

	if err := s.db.WithContext(ctx).Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &newUser, nil
}

// Authenticate returns the user when password matches. Unknown users,
// OAuth-only users and wrong passwords all yield ErrInvalidCredentials.
func (s *LocalService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var existingUser models.User

	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existingUser).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	if !existingUser.IsLocal() {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*existingUser.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &existingUser, nil
}

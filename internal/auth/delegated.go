package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/monocle-dev/taskdeck/internal/models"
	"gorm.io/gorm"
)

// Identity is the verified subset of an ID token the app relies on.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified *bool
}

// IdentityProvider performs the authorization-code exchange and ID token
// verification against one OpenID Connect provider.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (rawIDToken string, err error)
	Verify(ctx context.Context, rawIDToken, nonce string) (*Identity, error)
}

// ParamStore holds the pending state and nonce between the redirect to the
// provider and the callback. session.Session implements it.
type ParamStore interface {
	SetOAuthParams(state, nonce string)
	PopOAuthParams() (state, nonce string)
}

type DelegatedService struct {
	db       *gorm.DB
	provider IdentityProvider
}

func NewDelegatedService(db *gorm.DB, provider IdentityProvider) *DelegatedService {
	return &DelegatedService{db: db, provider: provider}
}

// Begin starts a login attempt and returns the provider URL to redirect to.
func (s *DelegatedService) Begin(store ParamStore) string {
	state := uuid.NewString()
	nonce := uuid.NewString()

	store.SetOAuthParams(state, nonce)

	return s.provider.AuthCodeURL(state, nonce)
}

// Complete handles the provider callback. The stored state and nonce are
// consumed and checked before the code is exchanged, so they are single use
// even when a later step fails. No user row is written unless the token
// verified and carried an email.
func (s *DelegatedService) Complete(ctx context.Context, store ParamStore, state, code string) (*models.User, error) {
	wantState, nonce := store.PopOAuthParams()

	if nonce == "" {
		return nil, ErrNonceMissing
	}

	if state != wantState {
		return nil, ErrStateMismatch
	}

	rawIDToken, err := s.provider.Exchange(ctx, code)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}

	identity, err := s.provider.Verify(ctx, rawIDToken, nonce)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if identity.Email == "" {
		return nil, ErrMissingEmail
	}

	if identity.EmailVerified != nil && !*identity.EmailVerified {
		return nil, ErrUnverifiedEmail
	}

	return s.reconcile(ctx, identity)
}

// reconcile finds the user whose username is the verified email, creating
// an OAuth account on first sight.
func (s *DelegatedService) reconcile(ctx context.Context, identity *Identity) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Where("username = ?", identity.Email).First(&user).Error

	if err == nil {
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	provider := s.provider.Name()
	subject := identity.Subject

	user = models.User{
		Username:      identity.Email,
		OAuthProvider: &provider,
		OAuthID:       &subject,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create user: %w", err)
		}

		// A concurrent callback for the same email created it first
		var existing models.User

		if err := s.db.WithContext(ctx).Where("username = ?", identity.Email).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("fetch user: %w", err)
		}

		return &existing, nil
	}

	log.Printf("Created %s account for %s", provider, identity.Email)

	return &user, nil
}

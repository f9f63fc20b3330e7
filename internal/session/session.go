// Package session keeps per-browser state in a signed JWT cookie: the bound
// user id, the pending OAuth nonce/state, and flash messages.
package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/monocle-dev/taskdeck/internal/models"
	"gorm.io/gorm"
)

const (
	CookieName = "taskdeck_session"
	sessionTTL = 7 * 24 * time.Hour

	contextKey = "session"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type Claims struct {
	UserID     uint    `json:"user_id,omitempty"`
	Nonce      string  `json:"nonce,omitempty"`
	OAuthState string  `json:"oauth_state,omitempty"`
	Flashes    []Flash `json:"flashes,omitempty"`
	jwt.RegisteredClaims
}

// Session is the decoded state of one request's session cookie.
type Session struct {
	claims Claims
}

func (s *Session) UserID() uint {
	return s.claims.UserID
}

// SetOAuthParams records the state and nonce of a pending OAuth login.
func (s *Session) SetOAuthParams(state, nonce string) {
	s.claims.OAuthState = state
	s.claims.Nonce = nonce
}

// PopOAuthParams returns and clears the pending OAuth state and nonce.
func (s *Session) PopOAuthParams() (state, nonce string) {
	state, nonce = s.claims.OAuthState, s.claims.Nonce
	s.claims.OAuthState = ""
	s.claims.Nonce = ""

	return state, nonce
}

func (s *Session) AddFlash(category, message string) {
	s.claims.Flashes = append(s.claims.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns pending flash messages and clears them.
func (s *Session) PopFlashes() []Flash {
	flashes := s.claims.Flashes
	s.claims.Flashes = nil

	if flashes == nil {
		return []Flash{}
	}

	return flashes
}

type CookieOptions struct {
	Domain string
	Secure bool
}

type Manager struct {
	secret []byte
	db     *gorm.DB
	cookie CookieOptions
}

func NewManager(secret string, db *gorm.DB, cookie CookieOptions) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}

	return &Manager{secret: []byte(secret), db: db, cookie: cookie}, nil
}

// Load returns the request's session, decoding the cookie on first use.
// A missing, tampered or expired cookie yields an empty session.
func (m *Manager) Load(ctx *gin.Context) *Session {
	if cached, ok := ctx.Get(contextKey); ok {
		if s, ok := cached.(*Session); ok {
			return s
		}
	}

	s := &Session{}

	if raw, err := ctx.Cookie(CookieName); err == nil && raw != "" {
		claims, err := m.parse(raw)

		if err != nil {
			log.Printf("Discarding invalid session cookie: %v", err)
		} else {
			s.claims = *claims
		}
	}

	ctx.Set(contextKey, s)

	return s
}

// Save signs the session and writes it back as a cookie.
func (m *Manager) Save(ctx *gin.Context, s *Session) error {
	now := time.Now()

	if s.claims.ID == "" {
		s.claims.ID = uuid.NewString()
	}

	s.claims.IssuedAt = jwt.NewNumericDate(now)
	s.claims.ExpiresAt = jwt.NewNumericDate(now.Add(sessionTTL))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, s.claims)
	signed, err := token.SignedString(m.secret)

	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	m.setCookie(ctx, signed, int(sessionTTL.Seconds()))

	return nil
}

// Login binds user to the session, replacing any previous identity.
func (m *Manager) Login(ctx *gin.Context, user *models.User) error {
	s := m.Load(ctx)
	s.claims.UserID = user.ID
	s.claims.ID = uuid.NewString()

	return m.Save(ctx, s)
}

// Logout clears the identity binding. Pending flashes survive.
func (m *Manager) Logout(ctx *gin.Context) error {
	s := m.Load(ctx)
	s.claims.UserID = 0
	s.claims.ID = uuid.NewString()
	s.PopOAuthParams()

	return m.Save(ctx, s)
}

// CurrentIdentity resolves the bound user id. It returns nil without an
// error when no identity is bound or the user no longer exists.
func (m *Manager) CurrentIdentity(ctx *gin.Context) (*models.User, error) {
	s := m.Load(ctx)

	if s.UserID() == 0 {
		return nil, nil
	}

	var user models.User

	err := m.db.WithContext(ctx.Request.Context()).First(&user, s.UserID()).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (m *Manager) parse(raw string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid or expired session: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired session")
	}

	return claims, nil
}

func (m *Manager) setCookie(ctx *gin.Context, value string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

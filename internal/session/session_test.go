package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/monocle-dev/taskdeck/internal/testutil"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newContext builds a gin context for a GET request carrying cookies.
func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	ctx.Request = req

	return ctx, rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}

	t.Fatalf("response did not set %s cookie", CookieName)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()

	conn := testutil.NewDB(t)

	m, err := NewManager("test-secret", conn, CookieOptions{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	return m, conn
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("", nil, CookieOptions{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestLoginBindsIdentity(t *testing.T) {
	m, conn := newTestManager(t)
	alice := testutil.CreateUser(t, conn, "alice", "pw1")

	ctx, rec := newContext()
	if err := m.Login(ctx, alice); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	next, _ := newContext(cookie)
	user, err := m.CurrentIdentity(next)
	if err != nil {
		t.Fatalf("CurrentIdentity() error = %v", err)
	}

	if user == nil || user.ID != alice.ID {
		t.Fatalf("CurrentIdentity() = %v, want user %d", user, alice.ID)
	}
}

func TestReloginOverwritesIdentity(t *testing.T) {
	m, conn := newTestManager(t)
	alice := testutil.CreateUser(t, conn, "alice", "pw1")
	bob := testutil.CreateUser(t, conn, "bob", "pw2")

	ctx, rec := newContext()
	if err := m.Login(ctx, alice); err != nil {
		t.Fatalf("Login(alice) error = %v", err)
	}

	ctx2, rec2 := newContext(sessionCookie(t, rec))
	if err := m.Login(ctx2, bob); err != nil {
		t.Fatalf("Login(bob) error = %v", err)
	}

	ctx3, _ := newContext(sessionCookie(t, rec2))
	user, err := m.CurrentIdentity(ctx3)
	if err != nil {
		t.Fatalf("CurrentIdentity() error = %v", err)
	}

	if user == nil || user.ID != bob.ID {
		t.Fatalf("CurrentIdentity() = %v, want bob", user)
	}
}

func TestLogoutClearsIdentityKeepsFlashes(t *testing.T) {
	m, conn := newTestManager(t)
	alice := testutil.CreateUser(t, conn, "alice", "pw1")

	ctx, rec := newContext()
	if err := m.Login(ctx, alice); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	ctx2, rec2 := newContext(sessionCookie(t, rec))
	m.Load(ctx2).AddFlash("info", "bye")
	if err := m.Logout(ctx2); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	ctx3, _ := newContext(sessionCookie(t, rec2))
	user, err := m.CurrentIdentity(ctx3)
	if err != nil {
		t.Fatalf("CurrentIdentity() error = %v", err)
	}
	if user != nil {
		t.Fatalf("CurrentIdentity() = %v after logout, want nil", user)
	}

	flashes := m.Load(ctx3).PopFlashes()
	if len(flashes) != 1 || flashes[0].Message != "bye" {
		t.Errorf("flashes = %v, want [bye]", flashes)
	}
}

func TestCurrentIdentityWithoutCookie(t *testing.T) {
	m, _ := newTestManager(t)

	ctx, _ := newContext()
	user, err := m.CurrentIdentity(ctx)
	if err != nil || user != nil {
		t.Fatalf("CurrentIdentity() = %v, %v; want nil, nil", user, err)
	}
}

func TestTamperedCookieIsIgnored(t *testing.T) {
	m, conn := newTestManager(t)
	alice := testutil.CreateUser(t, conn, "alice", "pw1")

	other, err := NewManager("another-secret", conn, CookieOptions{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, rec := newContext()
	if err := other.Login(ctx, alice); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	next, _ := newContext(sessionCookie(t, rec))
	if id := m.Load(next).UserID(); id != 0 {
		t.Errorf("UserID() = %d for cookie signed with another key, want 0", id)
	}
}

func TestExpiredCookieIsIgnored(t *testing.T) {
	m, _ := newTestManager(t)

	claims := Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	ctx, _ := newContext(&http.Cookie{Name: CookieName, Value: raw})
	if id := m.Load(ctx).UserID(); id != 0 {
		t.Errorf("UserID() = %d for expired cookie, want 0", id)
	}
}

func TestOAuthParamsAreSingleUse(t *testing.T) {
	m, _ := newTestManager(t)

	ctx, rec := newContext()
	s := m.Load(ctx)
	s.SetOAuthParams("state-1", "nonce-1")
	if err := m.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ctx2, _ := newContext(sessionCookie(t, rec))
	s2 := m.Load(ctx2)

	state, nonce := s2.PopOAuthParams()
	if state != "state-1" || nonce != "nonce-1" {
		t.Fatalf("PopOAuthParams() = %q, %q", state, nonce)
	}

	state, nonce = s2.PopOAuthParams()
	if state != "" || nonce != "" {
		t.Errorf("second PopOAuthParams() = %q, %q; want empty", state, nonce)
	}
}

func TestLoadIsCachedPerRequest(t *testing.T) {
	m, _ := newTestManager(t)

	ctx, _ := newContext()
	if m.Load(ctx) != m.Load(ctx) {
		t.Error("Load() returned different sessions within one request")
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/session"
)

type stubAuthService struct {
	registerIdentity domain.Identity
	registerErr      error
	loginIdentity    domain.Identity
	loginErr         error
}

func (s *stubAuthService) Register(context.Context, string, string, string) (domain.Identity, error) {
	return s.registerIdentity, s.registerErr
}

func (s *stubAuthService) Login(context.Context, string, string) (domain.Identity, error) {
	return s.loginIdentity, s.loginErr
}

func newAuthContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register(t *testing.T) {
	stub := &stubAuthService{
		registerIdentity: domain.Identity{Username: "mona", Email: "mona@example.com", Role: "member", Roles: []string{"member"}, UserKey: "mona"},
	}
	h := NewAuthHandler(stub)

	c, rec := newAuthContext(http.MethodPost, "/auth/register",
		`{"username":"mona","email":"mona@example.com","password":"secret"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var body identityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Identity.UserKey != "mona" {
		t.Fatalf("unexpected identity: %+v", body.Identity)
	}
}

func TestAuthHandler_Register_RejectsBadEmail(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newAuthContext(http.MethodPost, "/auth/register",
		`{"username":"mona","email":"not-an-email","password":"secret"}`)
	err := h.Register(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Register_PropagatesServiceError(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{registerErr: domain.ErrDuplicateUsername})

	c, _ := newAuthContext(http.MethodPost, "/auth/register",
		`{"username":"mona","email":"mona@example.com","password":"secret"}`)
	err := h.Register(c)
	// The central error handler maps the sentinel; the handler passes it on.
	if err != domain.ErrDuplicateUsername {
		t.Fatalf("expected sentinel passthrough, got %v", err)
	}
}

func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	stub := &stubAuthService{
		loginIdentity: domain.Identity{Username: "mona", Email: "mona@example.com", Role: "vip", Roles: []string{"vip"}, UserKey: "mona"},
	}
	h := NewAuthHandler(stub)

	c, rec := newAuthContext(http.MethodPost, "/auth/login",
		`{"username":"mona","password":"secret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatalf("login should set the session cookie")
	}
	identity := session.Decode(cookie.Value)
	if identity == nil || identity.Username != "mona" || identity.Role != "vip" {
		t.Fatalf("cookie does not round-trip the identity: %+v", identity)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, rec := newAuthContext(http.MethodPost, "/auth/logout", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName || cookies[0].MaxAge != -1 {
		t.Fatalf("logout should expire the session cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Session_RequiresIdentity(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newAuthContext(http.MethodGet, "/auth/session", "")
	err := h.Session(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous session lookup should get 401, got %v", err)
	}

	c, rec := newAuthContext(http.MethodGet, "/auth/session", "")
	c.Set("identity", domain.Identity{Username: "mona", Role: "member", Roles: []string{"member"}, UserKey: "mona"})
	if err := h.Session(c); err != nil {
		t.Fatalf("session lookup failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

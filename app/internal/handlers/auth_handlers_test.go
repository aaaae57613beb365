package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"healther/app/internal/models"
	"healther/app/internal/ratelimit"
)

func TestRegister_CreatesUser(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do("POST", "/auth/register", "", map[string]string{
		"email": "Ada@Example.com", "password": testPassword, "full_name": " Ada ",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	u := decode[models.User](t, rr)
	if u.ID == "" || u.FullName != "Ada" {
		t.Errorf("unexpected user %+v", u)
	}
	if strings.Contains(rr.Body.String(), "hashed_password") {
		t.Error("password hash must not be serialized")
	}
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)
	e.signup("ada@example.com")

	tests := []struct {
		name   string
		body   map[string]string
		detail string
	}{
		{"duplicate", map[string]string{"email": "ADA@example.com", "password": testPassword}, "Email already registered"},
		{"bad email", map[string]string{"email": "not-an-email", "password": testPassword}, "invalid email address"},
		{"short password", map[string]string{"email": "bob@example.com", "password": "short"}, "Password must be at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectDetail(t, e.do("POST", "/auth/register", "", tt.body), http.StatusBadRequest, tt.detail)
		})
	}
}

func TestToken_WrongPassword(t *testing.T) {
	e := newTestEnv(t)
	e.signup("ada@example.com")

	rr := e.do("POST", "/auth/token", "", map[string]string{"username": "ada@example.com", "password": "wrong-password"})
	expectDetail(t, rr, http.StatusUnauthorized, "Incorrect email or password")

	rr = e.do("POST", "/auth/token", "", map[string]string{"username": "nobody@example.com", "password": testPassword})
	expectDetail(t, rr, http.StatusUnauthorized, "Incorrect email or password")
}

func TestToken_Response(t *testing.T) {
	e := newTestEnv(t)
	e.signup("ada@example.com")
	rr := e.do("POST", "/auth/token", "", map[string]string{"username": "ada@example.com", "password": testPassword})
	tok := decode[tokenResponse](t, rr)
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Errorf("unexpected token response %+v", tok)
	}
}

func TestMe_RequiresAuth(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do("GET", "/me", "", nil)
	expectDetail(t, rr, http.StatusUnauthorized, "Could not validate credentials")

	rr = e.do("GET", "/me", "garbage", nil)
	expectDetail(t, rr, http.StatusUnauthorized, "Could not validate credentials")
}

func TestMe_ExpiredToken(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.signup("ada@example.com")
	e.srv.Auth.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	expectDetail(t, e.do("GET", "/me", token, nil), http.StatusUnauthorized, "")
}

func TestMe_GetAndUpdate(t *testing.T) {
	e := newTestEnv(t)
	token, id := e.signup("ada@example.com")

	u := decode[models.User](t, e.do("GET", "/me", token, nil))
	if u.ID != id || u.Email != "ada@example.com" {
		t.Errorf("unexpected me %+v", u)
	}

	rr := e.do("PATCH", "/me", token, map[string]string{"full_name": "Ada Lovelace"})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch me: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[models.User](t, rr).FullName; got != "Ada Lovelace" {
		t.Errorf("expected updated name, got %q", got)
	}
}

func TestTheme_RoundTrip(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.signup("ada@example.com")

	if got := decode[themeBody](t, e.do("GET", "/me/theme", token, nil)).Theme; got != models.ThemeSystem {
		t.Errorf("expected default system theme, got %q", got)
	}

	rr := e.do("PUT", "/me/theme", token, map[string]string{"theme": "dark"})
	if got := decode[themeBody](t, rr).Theme; got != models.ThemeDark {
		t.Errorf("expected dark, got %q", got)
	}
	if got := decode[themeBody](t, e.do("GET", "/me/theme", token, nil)).Theme; got != models.ThemeDark {
		t.Errorf("expected stored dark, got %q", got)
	}

	rr = e.do("PUT", "/me/theme", token, map[string]string{"theme": "neon"})
	if got := decode[themeBody](t, rr).Theme; got != models.ThemeSystem {
		t.Errorf("unknown theme should fall back to system, got %q", got)
	}
}

func TestToken_RateLimited(t *testing.T) {
	l := ratelimit.New(ratelimit.Config{TokensPerMinute: 1, ErrorMessage: "slow down"})
	t.Cleanup(l.Stop)
	e := newTestEnvWith(t, Limiters{Login: l})

	body := map[string]string{"username": "x@example.com", "password": "whatever"}
	if rr := e.do("POST", "/auth/token", "", body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("first attempt: expected 401, got %d", rr.Code)
	}
	rr := e.do("POST", "/auth/token", "", body)
	expectDetail(t, rr, http.StatusTooManyRequests, "slow down")
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-32bytes-long!!!!")

func testAuth(t *testing.T) *Auth {
	t.Helper()
	return NewAuth(testSecret, time.Hour)
}

// --- NewAuth ---

func TestNewAuth(t *testing.T) {
	a := NewAuth([]byte("secret"), 5*time.Minute)
	if a.TTL != 5*time.Minute {
		t.Errorf("expected TTL 5m, got %v", a.TTL)
	}
	if a.Now == nil {
		t.Error("expected a default clock")
	}
}

// --- IssueToken / Parse ---

func TestIssueAndParse(t *testing.T) {
	a := testAuth(t)
	token, err := a.IssueToken("user-1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	claims, err := a.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Subject != "user-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParse_Expired(t *testing.T) {
	a := testAuth(t)
	issued := time.Now().Add(-2 * time.Hour)
	a.Now = func() time.Time { return issued }
	token, err := a.IssueToken("user-1")
	if err != nil {
		t.Fatal(err)
	}
	a.Now = time.Now
	if _, err := a.Parse(token); !errors.Is(err, jwtlib.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	token, _ := testAuth(t).IssueToken("user-1")
	other := NewAuth([]byte("another-secret-key-also-32-bytes"), time.Hour)
	if _, err := other.Parse(token); err == nil {
		t.Error("token signed with a different secret should not parse")
	}
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: "user-1", RegisteredClaims: jwtlib.RegisteredClaims{Issuer: issuer}}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := testAuth(t).Parse(token); err == nil {
		t.Error("unsigned token should be rejected")
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := testAuth(t).Parse("not.a.token"); err == nil {
		t.Error("expected error for garbage token")
	}
}

// --- Authenticate ---

func TestAuthenticate(t *testing.T) {
	a := testAuth(t)
	token, _ := a.IssueToken("user-1")

	tests := []struct {
		name   string
		header string
		want   string
		err    bool
	}{
		{"valid", "Bearer " + token, "user-1", false},
		{"lowercase scheme", "bearer " + token, "user-1", false},
		{"missing", "", "", true},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", true},
		{"empty token", "Bearer ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := a.Authenticate(req)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("user = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- RequireAuth ---

func TestRequireAuth_NoToken(t *testing.T) {
	a := testAuth(t)
	handler := a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"detail"`) {
		t.Errorf("expected JSON detail body, got %q", rr.Body.String())
	}
	if rr.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestRequireAuth_StoresUserID(t *testing.T) {
	a := testAuth(t)
	token, _ := a.IssueToken("user-42")

	var seen string
	handler := a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if seen != "user-42" {
		t.Errorf("UserID = %q, want user-42", seen)
	}
}

func TestUserID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := UserID(req.Context()); got != "" {
		t.Errorf("expected empty user, got %q", got)
	}
}

// --- Passwords ---

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash should not equal the password")
	}
	if err := CheckPassword(hash, "password123"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
	if err := CheckPassword("", ""); !errors.Is(err, ErrBadCredentials) {
		t.Error("empty hash must never match")
	}
}

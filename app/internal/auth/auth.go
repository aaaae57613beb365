package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "healther"

var (
	// ErrNoToken is returned when a request carries no bearer token
	ErrNoToken = errors.New("missing bearer token")
	// ErrBadCredentials is returned when a password does not match
	ErrBadCredentials = errors.New("incorrect email or password")
)

// Auth issues and validates bearer tokens
type Auth struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// Claims is the JWT payload
type Claims struct {
	UserID string `json:"user_id"`
	jwtlib.RegisteredClaims
}

// NewAuth creates a new Auth instance
func NewAuth(secret []byte, ttl time.Duration) *Auth {
	return &Auth{Secret: secret, TTL: ttl, Now: time.Now}
}

func (a *Auth) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// IssueToken signs an HS256 token for userID
func (a *Auth) IssueToken(userID string) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(a.TTL)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// Parse validates a token and returns its claims
func (a *Auth) Parse(token string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return a.Secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Authenticate returns the user ID carried by the request's bearer token
func (a *Auth) Authenticate(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	claims, err := a.Parse(strings.TrimSpace(token))
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user stored by RequireAuth
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequireAuth is middleware that requires a valid bearer token
func (a *Auth) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.Authenticate(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword compares password with a stored hash. An empty hash never
// matches, so invited users cannot sign in before setting a password.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/rbac"
)

const issuer = "edupulse"

var ErrRevoked = errors.New("token revoked")

type AuthService struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl, now: time.Now, revoked: map[string]time.Time{}}
}

// Claims carry the signed-in user so that handlers need no store round trip.
type Claims struct {
	Account        string `json:"account"`
	Name           string `json:"name"`
	Class          string `json:"class"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role"` // "student", "teacher" or "admin"
	SubjectTeacher string `json:"subject_teacher,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) User() exam.User {
	return exam.User{
		Account:        c.Account,
		Name:           c.Name,
		ClassName:      c.Class,
		Email:          c.Email,
		Role:           exam.ParseRole(c.Role),
		SubjectTeacher: c.SubjectTeacher,
		Active:         true,
	}
}

func (a *AuthService) IssueJWT(u exam.User) (string, error) {
	now := a.now()
	claims := &Claims{
		Account:        u.Account,
		Name:           u.Name,
		Class:          u.ClassName,
		Email:          u.Email,
		Role:           string(u.Role),
		SubjectTeacher: u.SubjectTeacher,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Account,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, _ := token.Claims.(*Claims)
	if a.isRevoked(c.ID) {
		return nil, ErrRevoked
	}
	return c, nil
}

// Revoke invalidates a token id until the token would have expired anyway.
func (a *AuthService) Revoke(c *Claims) {
	if c == nil || c.ID == "" {
		return
	}
	exp := a.now().Add(a.ttl)
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	for id, until := range a.revoked {
		if now.After(until) {
			delete(a.revoked, id)
		}
	}
	a.revoked[c.ID] = exp
}

func (a *AuthService) isRevoked(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.revoked[id]
	return ok
}

// Authenticator checks a login against the store (or the local admin).
type Authenticator interface {
	Authenticate(ctx context.Context, account, password string) (exam.User, error)
}

// LoginError lets the authenticator choose the status and message shown
// for a refused login.
type LoginError interface {
	error
	LoginStatus() (int, string)
}

// POST /auth/login  { "account": "...", "password": "..." }
func LoginHandler(a *AuthService, authn Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Account  string `json:"account"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Account) == "" || req.Password == "" {
			http.Error(w, "account and password are required", http.StatusBadRequest)
			return
		}
		u, err := authn.Authenticate(r.Context(), strings.TrimSpace(req.Account), req.Password)
		if err != nil {
			var le LoginError
			if errors.As(err, &le) {
				code, msg := le.LoginStatus()
				http.Error(w, msg, code)
				return
			}
			http.Error(w, "login failed", http.StatusBadGateway)
			return
		}
		tok, err := a.IssueJWT(u)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": tok, "user": u})
	}
}

// JWTMiddleware verifies the bearer token and puts its user and claims in
// the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithClaims(r.Context(), c)
			ctx = rbac.WithUser(ctx, c.User())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

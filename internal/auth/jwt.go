package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"storefront-api/internal/models"
)

// Role distinguishes storefront buyers from back-office admins.
type Role string

const (
	RoleBuyer Role = "buyer"
	RoleAdmin Role = "admin"
)

// Identity is the decoded caller identity a handler receives.
type Identity struct {
	UserID string
	Role   Role
}

type contextKey string

const identityKey contextKey = "identity"

// Manager issues and verifies HS256 bearer tokens.
type Manager struct {
	secret []byte
}

// NewManager creates a token manager keyed by the server JWT secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue creates a signed token for the given identity.
func (m *Manager) Issue(userID string, role Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":   userID,
		"role": string(role),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns the caller identity.
func (m *Manager) Verify(tokenString string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, models.AuthenticationError{Message: "invalid token"}
	}

	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return nil, models.AuthenticationError{Message: "invalid token"}
	}

	role := RoleBuyer
	if r, ok := claims["role"].(string); ok && r == string(RoleAdmin) {
		role = RoleAdmin
	}

	return &Identity{UserID: id, Role: role}, nil
}

// FromContext returns the identity stored by the middleware, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity. Exposed for
// handler tests.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Middleware authenticates the request and, when adminOnly is set, requires
// the admin role. The identity is placed on the request context.
func (m *Manager) Middleware(adminOnly bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "Authorization token missing")
			return
		}

		identity, err := m.Verify(tokenString)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		if adminOnly && identity.Role != RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "Admin access required")
			return
		}

		next(w, r.WithContext(WithIdentity(r.Context(), identity)))
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the legacy token header.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.Header.Get("token")
}

func writeAuthError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"success":false,"message":%q}`, message)
}

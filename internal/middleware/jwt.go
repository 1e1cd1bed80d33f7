package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"brigade_tracker/internal/apperr"
)

// Roles issued by the identity provider.
const (
	RolePlatformAdmin = "platform-admin"
	RoleBrigadeAdmin  = "brigade-admin"
	RoleFieldWorker   = "field-worker"
)

const (
	principalKey    = "principal"
	stateSuspended  = "suspended"
	defaultTokenTTL = 72 * time.Hour
)

// Principal is the authenticated caller.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	State string `json:"state"`
}

// IdentityProvider validates a bearer credential and returns its principal.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	State string `json:"state,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies HS256 tokens signed with a shared secret.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

// GenerateToken signs a token for p. Used by the token command and tests.
func (p *JWTProvider) GenerateToken(principal Principal, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := time.Now()
	c := claims{
		Email: principal.Email,
		Role:  principal.Role,
		State: principal.State,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(p.secret)
}

func (p *JWTProvider) Authenticate(_ context.Context, tokenStr string) (*Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperr.New(apperr.ErrUnauthenticated, "Invalid or expired token")
	}
	if c.Subject == "" || c.Role == "" {
		return nil, apperr.New(apperr.ErrUnauthenticated, "Invalid token claims")
	}
	if c.State == stateSuspended {
		return nil, apperr.New(apperr.ErrForbidden, "Account is suspended")
	}
	return &Principal{ID: c.Subject, Email: c.Email, Role: c.Role, State: c.State}, nil
}

// RequireAuth ensures a valid bearer token is present
func RequireAuth(idp IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		principal, err := idp.Authenticate(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, apperr.ErrForbidden) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
			return
		}

		// Store the principal for downstream handlers
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole must run after RequireAuth; it admits any of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":        "Insufficient permissions",
			"current_role": principal.Role,
		})
	}
}

// CurrentPrincipal returns the principal stored by RequireAuth.
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

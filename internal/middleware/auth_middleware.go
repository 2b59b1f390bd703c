// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"hellofixo-service/internal/pkg/jwt"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

type Blacklist interface {
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type AuthMiddleware struct {
	verifier  TokenVerifier
	blacklist Blacklist
}

func NewAuthMiddleware(verifier TokenVerifier, blacklist Blacklist) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:  verifier,
		blacklist: blacklist,
	}
}

// Auth validates the bearer token and stores the caller in the context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		claims, err := m.authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and never aborts.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := ExtractToken(c); token != "" {
			if claims, err := m.authenticate(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole must run after Auth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			response.Forbidden(c, "authentication required")
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "insufficient permissions", nil, map[string]interface{}{
			"required_roles": roles,
		})
	}
}

// AdminOnly returns Auth followed by an admin role check.
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole("admin"),
	}
}

func (m *AuthMiddleware) authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := m.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	if m.blacklist != nil {
		revoked, err := m.blacklist.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errTokenRevoked
		}
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxJTI, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(ctxTokenExpiry, claims.ExpiresAt.Time)
	}
}

// ExtractToken reads a Bearer token from the Authorization header, falling
// back to the token query parameter used by websocket clients.
func ExtractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}

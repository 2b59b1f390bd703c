// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

// Claims represents the JWT claims issued to customers, partners and admins.
type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Phone   string `json:"phone,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// HasRole checks if the claims carry the given role
func (c *Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin
func (c *Claims) IsAdmin() bool {
	return c.HasRole("admin")
}

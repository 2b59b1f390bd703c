// internal/middleware/helpers.go
package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID      = "user_id"
	ctxRole        = "role"
	ctxJTI         = "jti"
	ctxTokenExpiry = "token_expiry"
)

var errTokenRevoked = errors.New("token has been revoked")

// GetUserID returns the authenticated user's id.
func GetUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// MustGetUserID gets the user id from context or panics; use behind Auth only.
func MustGetUserID(c *gin.Context) string {
	id, ok := GetUserID(c)
	if !ok {
		panic("user_id not found in context")
	}
	return id
}

func GetRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

func GetJTI(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxJTI)
	if !ok {
		return "", false
	}
	jti, ok := v.(string)
	return jti, ok
}

// GetTokenExpiry returns when the current access token expires.
func GetTokenExpiry(c *gin.Context) time.Time {
	v, ok := c.Get(ctxTokenExpiry)
	if !ok {
		return time.Time{}
	}
	t, _ := v.(time.Time)
	return t
}

func IsAuthenticated(c *gin.Context) bool {
	_, ok := GetUserID(c)
	return ok
}

func IsAdmin(c *gin.Context) bool {
	role, _ := GetRole(c)
	return role == "admin"
}

// RequestLang prefers ?lang and falls back to Accept-Language.
func RequestLang(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		return lang
	}
	return c.GetHeader("Accept-Language")
}

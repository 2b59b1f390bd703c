// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

const defaultRefreshTTL = 30 * 24 * time.Hour

type Generator struct {
	priv     *rsa.PrivateKey
	issuer   string
	audience string
	kid      string // key id for rotation

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewGenerator(priv *rsa.PrivateKey, issuer, audience, kid string, ttl time.Duration) *Generator {
	return &Generator{
		priv:       priv,
		issuer:     issuer,
		audience:   audience,
		kid:        kid,
		AccessTTL:  ttl,
		RefreshTTL: defaultRefreshTTL,
	}
}

// Generate signs a token for the user and returns it together with its jti and expiry.
func (g *Generator) Generate(userID, role, phone, purpose string, ttl time.Duration) (string, string, time.Time, error) {
	if g.priv == nil {
		return "", "", time.Time{}, fmt.Errorf("jwt generator has nil private key")
	}

	now := time.Now()
	jti := ulid.Make().String()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID:  userID,
		Role:    role,
		Phone:   phone,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID,
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	signed, err := tok.SignedString(g.priv)
	return signed, jti, expiresAt, err
}

func (g *Generator) GenerateAccessToken(userID, role, phone string) (string, string, time.Time, error) {
	return g.Generate(userID, role, phone, PurposeAccess, g.AccessTTL)
}

// GenerateRefreshToken carries no role; Refresh reloads it from the user row.
func (g *Generator) GenerateRefreshToken(userID string) (string, string, time.Time, error) {
	return g.Generate(userID, "", "", PurposeRefresh, g.RefreshTTL)
}

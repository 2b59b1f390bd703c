// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrWrongPurpose is returned when a refresh token is presented as an access
// token or the other way round.
var ErrWrongPurpose = errors.New("token used for the wrong purpose")

const clockSkew = 30 * time.Second

type Verifier struct {
	pub    *rsa.PublicKey
	parser *jwt.Parser
}

func NewVerifier(pub *rsa.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{
		pub: pub,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// Verify checks signature, issuer, audience and expiry.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v.pub == nil {
		return nil, errors.New("jwt verifier has nil public key")
	}

	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.pub, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

func (v *Verifier) VerifyAccessToken(tokenString string) (*Claims, error) {
	return v.verifyPurpose(tokenString, PurposeAccess)
}

func (v *Verifier) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return v.verifyPurpose(tokenString, PurposeRefresh)
}

func (v *Verifier) verifyPurpose(tokenString, purpose string) (*Claims, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrWrongPurpose, purpose, claims.Purpose)
	}
	return claims, nil
}

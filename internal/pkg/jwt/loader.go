// internal/pkg/jwt/loader.go
package jwt

import (
	"errors"
	"fmt"
	"time"
)

// Config points at the PEM key pair and describes the tokens to issue.
type Config struct {
	PrivPath   string
	PubPath    string
	Issuer     string
	Audience   string
	TTL        time.Duration
	RefreshTTL time.Duration
	KID        string
}

// Manager bundles the signing and verifying halves of one key pair.
type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

// LoadAndBuild reads both keys from disk and builds a Manager.
func LoadAndBuild(cfg Config) (*Manager, error) {
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("jwt issuer and audience are required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("jwt access ttl must be positive, got %s", cfg.TTL)
	}

	priv, err := LoadRSAPrivateKeyFromPEM(cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("private key %s: %w", cfg.PrivPath, err)
	}
	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("public key %s: %w", cfg.PubPath, err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, errors.New("jwt public key does not match the private key")
	}

	gen := NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.TTL)
	if cfg.RefreshTTL > 0 {
		gen.RefreshTTL = cfg.RefreshTTL
	}
	return &Manager{
		Generator: gen,
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
	}, nil
}

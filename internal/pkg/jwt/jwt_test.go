package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &Manager{
		Generator: NewGenerator(priv, "hellofixo", "hellofixo-app", "k1", time.Hour),
		Verifier:  NewVerifier(&priv.PublicKey, "hellofixo", "hellofixo-app"),
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, jti, exp, err := m.Generator.GenerateAccessToken("user-1", "customer", "9876543210")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Verifier.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, jti, claims.ID)
	assert.False(t, claims.IsAdmin())
}

func TestRefreshTokenIsNotAccessToken(t *testing.T) {
	m := newTestManager(t)

	token, _, _, err := m.Generator.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	_, err = m.Verifier.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	claims, err := m.Verifier.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	m := newTestManager(t)
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other := NewGenerator(priv, "someone-else", "hellofixo-app", "", time.Hour)

	token, _, _, err := other.GenerateAccessToken("user-1", "customer", "")
	require.NoError(t, err)

	_, err = m.Verifier.Verify(token)
	assert.Error(t, err)
}

func TestParseRSAKeys(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	parsedPriv, err := ParseRSAPrivateKey(privPEM)
	require.NoError(t, err)
	assert.True(t, parsedPriv.Equal(priv))

	parsedPub, err := ParseRSAPublicKey(pubPEM)
	require.NoError(t, err)
	assert.True(t, parsedPub.Equal(&priv.PublicKey))

	_, err = ParseRSAPublicKey([]byte("garbage"))
	assert.Error(t, err)
}

func writeKey(t *testing.T, dir, name string, block *pem.Block) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestLoadAndBuild(t *testing.T) {
	dir := t.TempDir()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPath := writeKey(t, dir, "priv.pem", &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pubPath := writeKey(t, dir, "pub.pem", &pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey)})
	otherPath := writeKey(t, dir, "other.pem", &pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&other.PublicKey)})

	cfg := Config{
		PrivPath:   privPath,
		PubPath:    pubPath,
		Issuer:     "hellofixo",
		Audience:   "hellofixo-app",
		TTL:        time.Hour,
		RefreshTTL: 48 * time.Hour,
	}
	m, err := LoadAndBuild(cfg)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, m.Generator.RefreshTTL)

	_, _, exp, err := m.Generator.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), exp, 5*time.Second)

	mismatched := cfg
	mismatched.PubPath = otherPath
	_, err = LoadAndBuild(mismatched)
	assert.Error(t, err)

	noTTL := cfg
	noTTL.TTL = 0
	_, err = LoadAndBuild(noTTL)
	assert.Error(t, err)
}

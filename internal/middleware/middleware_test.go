package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hellofixo-service/internal/metrics"
	"hellofixo-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBlacklist map[string]bool

func (f fakeBlacklist) IsTokenBlacklisted(_ context.Context, jti string) (bool, error) {
	return f[jti], nil
}

func newJWT(t *testing.T) *jwt.Manager {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &jwt.Manager{
		Generator: jwt.NewGenerator(priv, "hellofixo", "hellofixo-app", "k1", time.Hour),
		Verifier:  jwt.NewVerifier(&priv.PublicKey, "hellofixo", "hellofixo-app"),
	}
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	m := newJWT(t)
	blacklist := fakeBlacklist{}
	mw := NewAuthMiddleware(m.Verifier, blacklist)

	r := gin.New()
	r.GET("/me", mw.Auth(), func(c *gin.Context) {
		c.String(http.StatusOK, MustGetUserID(c))
	})
	r.GET("/admin", append(mw.AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })...)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "garbage").Code)

	token, jti, _, err := m.Generator.GenerateAccessToken("user-1", "customer", "")
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", token).Code)

	adminToken, _, _, err := m.Generator.GenerateAccessToken("admin-1", "admin", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", adminToken).Code)

	refresh, _, _, err := m.Generator.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", refresh).Code)

	blacklist[jti] = true
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", token).Code)
}

func TestOptionalAuth(t *testing.T) {
	m := newJWT(t)
	mw := NewAuthMiddleware(m.Verifier, nil)

	r := gin.New()
	r.GET("/", mw.OptionalAuth(), func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.String(http.StatusOK, "auth")
			return
		}
		c.String(http.StatusOK, "anon")
	})

	assert.Equal(t, "anon", do(r, http.MethodGet, "/", "bad").Body.String())

	token, _, _, err := m.Generator.GenerateAccessToken("u", "customer", "")
	require.NoError(t, err)
	assert.Equal(t, "auth", do(r, http.MethodGet, "/", token).Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(60)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < l.burst; i++ {
		require.True(t, l.Allow("1.1.1.1"), "request %d", i)
	}
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(limiterIdleTTL + 2*time.Minute)
	l.Allow("3.3.3.3")
	assert.NotContains(t, l.visitors, "1.1.1.1")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewIPRateLimiter(1)
	r := gin.New()
	r.Use(RateLimitMiddleware(l, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := map[int]int{}
	for i := 0; i < l.burst+1; i++ {
		codes[do(r, http.MethodGet, "/", "").Code]++
	}
	assert.Equal(t, l.burst, codes[http.StatusOK])
	assert.Equal(t, 1, codes[http.StatusTooManyRequests])

	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://hellofixo.in"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://hellofixo.in")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://hellofixo.in", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New("test")
	r := gin.New()
	r.Use(MetricsMiddleware(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/items/1", "")
	do(r, http.MethodGet, "/items/2", "")
	do(r, http.MethodGet, "/nowhere", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

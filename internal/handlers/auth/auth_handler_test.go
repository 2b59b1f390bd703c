package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hellofixo-service/internal/domain/auth"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/validate"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	validate.RegisterBindings()
}

type fakeAuth struct {
	Service
	registered *auth.RegisterRequest
	loggedOut  string
	loginErr   error
}

func (f *fakeAuth) Register(_ context.Context, req *auth.RegisterRequest) (*auth.LoginResponse, error) {
	f.registered = req
	return &auth.LoginResponse{AccessToken: "at", User: auth.Profile{Email: req.Email}}, nil
}

func (f *fakeAuth) Login(_ context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &auth.LoginResponse{AccessToken: "at", User: auth.Profile{Email: req.Email}}, nil
}

func (f *fakeAuth) Logout(_ context.Context, userID, jti string, _ time.Time) error {
	f.loggedOut = userID + "/" + jti
	return nil
}

func (f *fakeAuth) UpdateProfile(_ context.Context, userID string, req *auth.UpdateProfileRequest) (*auth.Profile, error) {
	p := &auth.Profile{ID: userID}
	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	return p, nil
}

func router(f *fakeAuth) *gin.Engine {
	h := NewAuthHandler(f, zap.NewNop())
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	authed := r.Group("", func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Set("jti", "j1")
		c.Next()
	})
	authed.POST("/auth/logout", h.Logout)
	authed.PUT("/profile", h.UpdateProfile)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	f := &fakeAuth{}
	w := send(router(f), http.MethodPost, "/auth/register",
		`{"email":"asha@example.com","password":"secret123","full_name":"Asha","phone":"9876543210"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "test-agent", f.registered.UserAgent)
	assert.NotEmpty(t, f.registered.IPAddress)
}

func TestRegisterValidatesInput(t *testing.T) {
	cases := map[string]string{
		"short password": `{"email":"a@example.com","password":"short","full_name":"A"}`,
		"bad email":      `{"email":"nope","password":"secret123","full_name":"A"}`,
		"bad phone":      `{"email":"a@example.com","password":"secret123","full_name":"A","phone":"12345"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := send(router(&fakeAuth{}), http.MethodPost, "/auth/register", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginMapsServiceErrors(t *testing.T) {
	body := `{"email":"a@example.com","password":"secret123"}`

	w := send(router(&fakeAuth{loginErr: fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)}), http.MethodPost, "/auth/login", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(router(&fakeAuth{loginErr: fmt.Errorf("%w: slow down", xerrors.ErrRateLimited)}), http.MethodPost, "/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLogoutUsesTokenFromContext(t *testing.T) {
	f := &fakeAuth{}
	w := send(router(f), http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1/j1", f.loggedOut)
}

func TestUpdateProfile(t *testing.T) {
	w := send(router(&fakeAuth{}), http.MethodPut, "/profile", `{"full_name":"Asha K"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data auth.Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Asha K", env.Data.FullName)

	w = send(router(&fakeAuth{}), http.MethodPut, "/profile", `{"phone":"0000"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

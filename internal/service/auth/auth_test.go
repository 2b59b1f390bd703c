package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"hellofixo-service/internal/domain/auth"
	"hellofixo-service/internal/domain/referral"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/jwt"
	"hellofixo-service/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(context.Background(), email)
	return err == nil, nil
}

func (m *memUsers) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone != nil && *u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.users[id].LastLogin = &now
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, req *auth.UpdateProfileRequest) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Phone != nil {
		phone := *req.Phone
		u.Phone = &phone
	}
	cp := *u
	return &cp, nil
}

type memCodes struct {
	codes []*referral.Code
}

func (m *memCodes) Create(_ context.Context, c *referral.Code) error {
	m.codes = append(m.codes, c)
	return nil
}

type recordingHub struct {
	disconnected []string
}

func (h *recordingHub) DisconnectUser(userID, _ string) {
	h.disconnected = append(h.disconnected, userID)
}

type harness struct {
	svc      *AuthService
	users    *memUsers
	codes    *memCodes
	hub      *recordingHub
	sessions *session.Manager
	mr       *miniredis.Miniredis
	jwt      *jwt.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	manager := &jwt.Manager{
		Generator: jwt.NewGenerator(priv, "hellofixo", "hellofixo-app", "k1", time.Hour),
		Verifier:  jwt.NewVerifier(&priv.PublicKey, "hellofixo", "hellofixo-app"),
	}

	h := &harness{
		users:    &memUsers{users: map[string]*auth.User{}},
		codes:    &memCodes{},
		hub:      &recordingHub{},
		sessions: session.NewManager(client),
		mr:       mr,
		jwt:      manager,
	}
	h.svc = NewAuthService(h.users, h.codes, manager, h.sessions, session.NewRateLimiter(client), h.hub, zap.NewNop())
	return h
}

func (h *harness) register(t *testing.T) *auth.LoginResponse {
	t.Helper()
	res, err := h.svc.Register(context.Background(), &auth.RegisterRequest{
		Email:     " Asha@Example.com ",
		Phone:     "9876543210",
		Password:  "s3cret-pass",
		FullName:  "Asha Rao",
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	return res
}

func TestRegisterIssuesTokensAndReferralCode(t *testing.T) {
	h := newHarness(t)
	res := h.register(t)

	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Equal(t, auth.RoleCustomer, res.User.Role)
	assert.Equal(t, "9876543210", res.User.Phone)

	claims, err := h.jwt.Verifier.VerifyAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	sess, err := h.sessions.GetSession(context.Background(), res.User.ID, claims.ID)
	require.NoError(t, err)
	require.NotNil(t, sess)

	require.Len(t, h.codes.codes, 1)
	assert.True(t, strings.HasPrefix(h.codes.codes[0].Code, "ASHA"))
	assert.Equal(t, float64(DefaultReferralDiscount), h.codes.codes[0].Discount)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	_, err := h.svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "asha@example.com",
		Password: "another-pass",
		FullName: "Someone",
	})
	assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)

	_, err = h.svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "other@example.com",
		Phone:    "9876543210",
		Password: "another-pass",
		FullName: "Someone",
	})
	assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	_, err := h.svc.Login(ctx, &auth.LoginRequest{Email: "asha@example.com", Password: "wrong-pass", IPAddress: "1.1.1.1"})
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)

	_, err = h.svc.Login(ctx, &auth.LoginRequest{Email: "nobody@example.com", Password: "x", IPAddress: "1.1.1.1"})
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)

	res, err := h.svc.Login(ctx, &auth.LoginRequest{Email: "ASHA@example.com", Password: "s3cret-pass", IPAddress: "1.1.1.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotNil(t, h.users.users[res.User.ID].LastLogin)
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	req := &auth.LoginRequest{Email: "asha@example.com", Password: "wrong-pass", IPAddress: "2.2.2.2"}
	for i := 0; i < 5; i++ {
		_, err := h.svc.Login(ctx, req)
		require.ErrorIs(t, err, xerrors.ErrUnauthorized)
	}
	_, err := h.svc.Login(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)
}

func TestRefreshRotatesToken(t *testing.T) {
	h := newHarness(t)
	res := h.register(t)
	ctx := context.Background()

	next, err := h.svc.Refresh(ctx, res.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, res.AccessToken, next.AccessToken)

	_, err = h.svc.Refresh(ctx, res.RefreshToken, "", "")
	assert.ErrorIs(t, err, xerrors.ErrSessionExpired)

	_, err = h.svc.Refresh(ctx, res.AccessToken, "", "")
	assert.ErrorIs(t, err, xerrors.ErrSessionExpired)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	h := newHarness(t)
	res := h.register(t)
	ctx := context.Background()

	claims, err := h.jwt.Verifier.VerifyAccessToken(res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(ctx, res.User.ID, claims.ID, claims.ExpiresAt.Time))

	revoked, err := h.sessions.IsTokenBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, []string{res.User.ID}, h.hub.disconnected)

	sess, err := h.sessions.GetSession(ctx, res.User.ID, claims.ID)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	res := h.register(t)
	ctx := context.Background()

	blank := "  "
	_, err := h.svc.UpdateProfile(ctx, res.User.ID, &auth.UpdateProfileRequest{FullName: &blank})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	name, phone := " Asha R ", "9123456789"
	p, err := h.svc.UpdateProfile(ctx, res.User.ID, &auth.UpdateProfileRequest{FullName: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Asha R", p.FullName)
	assert.Equal(t, "9123456789", p.Phone)

	got, err := h.svc.GetProfile(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Phone, got.Phone)
}

func TestNewReferralCode(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewReferralCode("ravi kumar"), "RAVI"))
	assert.True(t, strings.HasPrefix(NewReferralCode("Jo"), "JO"))
	assert.True(t, strings.HasPrefix(NewReferralCode("४५६"), "HFX"))
	assert.Len(t, NewReferralCode("Asha"), 9)
}

package referral

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hellofixo-service/internal/domain/referral"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/httpx"
	"hellofixo-service/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func remoteServer(t *testing.T, status int, body string) (*httptest.Server, *referral.VerifyRequest, *string) {
	t.Helper()
	var got referral.VerifyRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check-referral", r.URL.Path)
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got, &auth
}

func remoteService(srv *httptest.Server) *ReferralService {
	client := httpx.New("check-referral", httpx.Config{Timeout: time.Second, MaxRetries: 1, InitialInterval: time.Millisecond}, nil, nil)
	return NewReferralService(NewRemoteChecker(client, srv.URL+"/", "service-key"), nil, nil, zap.NewNop())
}

func TestVerifyValidCode(t *testing.T) {
	srv, got, auth := remoteServer(t, http.StatusOK, `{"valid":true,"discount":50,"message":"Applied"}`)

	res, err := remoteService(srv).Verify(context.Background(), "u1", "  fix50 ", "9876543210")
	require.NoError(t, err)

	assert.True(t, res.Valid())
	assert.Equal(t, 50.0, res.Discount)
	assert.Equal(t, "FIX50", res.Code)
	assert.Equal(t, "FIX50", got.Code)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Equal(t, "Bearer service-key", *auth)
}

func TestVerifyInvalidCodeDefaultsMessage(t *testing.T) {
	srv, _, _ := remoteServer(t, http.StatusOK, `{"valid":false,"discount":75}`)

	res, err := remoteService(srv).Verify(context.Background(), "u1", "NOPE", "9876543210")
	require.NoError(t, err)

	assert.Equal(t, referral.StatusError, res.Status)
	assert.Equal(t, 0.0, res.Discount)
	assert.Equal(t, MessageInvalid, res.Message)
}

func TestVerifyTransportError(t *testing.T) {
	srv, _, _ := remoteServer(t, http.StatusBadGateway, `oops`)

	res, err := remoteService(srv).Verify(context.Background(), "u1", "FIX50", "9876543210")
	require.NoError(t, err)

	assert.Equal(t, referral.StatusError, res.Status)
	assert.Equal(t, 0.0, res.Discount)
	assert.Equal(t, MessageUnverified, res.Message)
}

func TestVerifyRejectsBadInput(t *testing.T) {
	svc := NewReferralService(NewLocalChecker(memCodes{}), nil, nil, zap.NewNop())

	_, err := svc.Verify(context.Background(), "u1", " ", "9876543210")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.Verify(context.Background(), "u1", "FIX50", "12345")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

type memCodes map[string]*referral.Code

func (m memCodes) FindByCode(_ context.Context, code string) (*referral.Code, error) {
	if c, ok := m[code]; ok {
		return c, nil
	}
	return nil, xerrors.ErrNotFound
}

func TestLocalChecker(t *testing.T) {
	codes := memCodes{
		"ASHA100": {Code: "ASHA100", OwnerID: "owner", Discount: 100, Active: true},
		"OLD20":   {Code: "OLD20", OwnerID: "owner", Discount: 20, Active: false},
	}
	svc := NewReferralService(NewLocalChecker(codes), nil, nil, zap.NewNop())
	ctx := context.Background()

	res, err := svc.Verify(ctx, "friend", "asha100", "9876543210")
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, 100.0, res.Discount)

	res, err = svc.Verify(ctx, "owner", "ASHA100", "9876543210")
	require.NoError(t, err)
	assert.False(t, res.Valid())
	assert.Equal(t, "You cannot use your own referral code", res.Message)

	res, err = svc.Verify(ctx, "friend", "OLD20", "9876543210")
	require.NoError(t, err)
	assert.False(t, res.Valid())

	res, err = svc.Verify(ctx, "friend", "MISSING", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, MessageInvalid, res.Message)
}

func TestVerifyRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	svc := NewReferralService(NewLocalChecker(memCodes{}), session.NewRateLimiter(rdb), nil, zap.NewNop())
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := svc.Verify(ctx, "u1", "X", "9876543210")
		require.NoError(t, err)
	}
	_, err := svc.Verify(ctx, "u1", "X", "9876543210")
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)

	_, err = svc.Verify(ctx, "u1", "X", "9123456780")
	assert.NoError(t, err)
}

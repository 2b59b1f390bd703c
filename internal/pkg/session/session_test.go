package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSessionLifecycle(t *testing.T) {
	_, client := newRedis(t)
	m := NewManager(client)
	ctx := context.Background()

	s := &SessionData{JTI: "jti-1", UserID: "u1", Role: "customer", LoginAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, m.CreateSession(ctx, s))

	got, err := m.GetSession(ctx, "u1", "jti-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "customer", got.Role)

	require.NoError(t, m.RevokeSession(ctx, "u1", "jti-1", s.ExpiresAt))

	got, err = m.GetSession(ctx, "u1", "jti-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	blacklisted, err := m.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestCreateSessionRejectsExpired(t *testing.T) {
	_, client := newRedis(t)
	m := NewManager(client)

	err := m.CreateSession(context.Background(), &SessionData{JTI: "x", UserID: "u", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.Error(t, err)
}

func TestRateLimiterWindow(t *testing.T) {
	mr, client := newRedis(t)
	r := NewRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < maxReferralAttempts; i++ {
		ok, err := r.CheckReferralAttempt(ctx, "9876543210")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := r.CheckReferralAttempt(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(attemptWindow + time.Second)

	ok, err = r.CheckReferralAttempt(ctx, "9876543210")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiterRepairsCounterWithoutTTL(t *testing.T) {
	mr, client := newRedis(t)
	r := NewRateLimiter(client)
	ctx := context.Background()

	// a counter whose expiry was never set
	require.NoError(t, mr.Set("ratelimit:login:1.2.3.4:asha@example.com", "7"))

	ok, remaining, err := r.Allow(ctx, "ratelimit:login:1.2.3.4:asha@example.com", maxLoginAttempts, attemptWindow)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), remaining)
	assert.Equal(t, attemptWindow, mr.TTL("ratelimit:login:1.2.3.4:asha@example.com"))

	mr.FastForward(attemptWindow + time.Second)
	ok, _, err = r.CheckLoginAttempt(ctx, "1.2.3.4", "asha@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiterKeepsFirstWindow(t *testing.T) {
	mr, client := newRedis(t)
	r := NewRateLimiter(client)
	ctx := context.Background()

	_, _, err := r.CheckLoginAttempt(ctx, "1.2.3.4", "asha@example.com")
	require.NoError(t, err)
	mr.FastForward(10 * time.Minute)
	_, _, err = r.CheckLoginAttempt(ctx, "1.2.3.4", "asha@example.com")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, mr.TTL("ratelimit:login:1.2.3.4:asha@example.com"))
}

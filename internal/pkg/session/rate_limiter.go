// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxLoginAttempts    = 5
	maxReferralAttempts = 10
	attemptWindow       = 15 * time.Minute
)

// incrWindow increments KEYS[1] and gives it a TTL of ARGV[1] ms whenever it
// has none, so a counter can never outlive its window.
var incrWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

type RateLimiter struct {
	client redis.Cmdable
}

func NewRateLimiter(client redis.Cmdable) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow increments the counter under key and reports whether it is still within max.
// The window starts at the first hit.
func (r *RateLimiter) Allow(ctx context.Context, key string, max int64, window time.Duration) (bool, int64, error) {
	count, err := incrWindow.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= max, remaining, nil
}

// CheckLoginAttempt allows 5 login attempts per 15 minutes per ip/email pair
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error) {
	return r.Allow(ctx, fmt.Sprintf("ratelimit:login:%s:%s", ip, email), maxLoginAttempts, attemptWindow)
}

// ResetLoginAttempts resets the login attempt counter
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	return r.client.Del(ctx, fmt.Sprintf("ratelimit:login:%s:%s", ip, email)).Err()
}

// CheckReferralAttempt allows 10 referral verifications per 15 minutes per phone
func (r *RateLimiter) CheckReferralAttempt(ctx context.Context, phone string) (bool, error) {
	ok, _, err := r.Allow(ctx, fmt.Sprintf("ratelimit:referral:%s", phone), maxReferralAttempts, attemptWindow)
	return ok, err
}

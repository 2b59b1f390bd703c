// internal/service/referral/service.go
package referral

import (
	"context"
	"fmt"
	"strings"

	"hellofixo-service/internal/domain/referral"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/metrics"
	"hellofixo-service/internal/pkg/validate"

	"go.uber.org/zap"
)

const (
	MessageInvalid    = "Invalid referral code"
	MessageUnverified = "Could not verify referral code"
)

// AttemptLimiter caps verification attempts per phone.
type AttemptLimiter interface {
	CheckReferralAttempt(ctx context.Context, phone string) (bool, error)
}

type ReferralService struct {
	checker Checker
	limiter AttemptLimiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewReferralService(checker Checker, limiter AttemptLimiter, m *metrics.Metrics, logger *zap.Logger) *ReferralService {
	return &ReferralService{
		checker: checker,
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

// NormalizeCode trims and upper-cases a code as typed by the customer.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Verify checks code for phone. A rejected or unverifiable code is a
// Result with status error and zero discount, not an error; errors are
// reserved for bad input and rate limiting.
func (s *ReferralService) Verify(ctx context.Context, userID, code, phone string) (referral.Result, error) {
	code = NormalizeCode(code)
	phone = strings.TrimSpace(phone)
	if code == "" {
		return referral.Result{}, fmt.Errorf("%w: referral code is required", xerrors.ErrInvalidInput)
	}
	if !validate.Phone(phone) {
		return referral.Result{}, fmt.Errorf("%w: a valid mobile number is required to apply a referral code", xerrors.ErrInvalidInput)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.CheckReferralAttempt(ctx, phone)
		if err != nil {
			s.logger.Warn("referral rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			s.count("rate_limited")
			return referral.Result{}, fmt.Errorf("%w: too many referral attempts, try again later", xerrors.ErrRateLimited)
		}
	}

	resp, err := s.checker.Check(ctx, CheckRequest{Code: code, Phone: phone, UserID: userID})
	if err != nil {
		s.logger.Warn("referral check failed", zap.String("code", code), zap.Error(err))
		s.count("unverified")
		return referral.Result{Code: code, Status: referral.StatusError, Message: MessageUnverified}, nil
	}

	if !resp.Valid {
		msg := resp.Message
		if msg == "" {
			msg = MessageInvalid
		}
		s.count("invalid")
		return referral.Result{Code: code, Status: referral.StatusError, Message: msg}, nil
	}

	discount := resp.Discount
	if discount < 0 {
		discount = 0
	}
	s.count("valid")
	s.logger.Info("referral code accepted", zap.String("code", code), zap.Float64("discount", discount))
	return referral.Result{Code: code, Status: referral.StatusSuccess, Discount: discount, Message: resp.Message}, nil
}

func (s *ReferralService) count(result string) {
	if s.metrics != nil {
		s.metrics.ReferralChecks.WithLabelValues(result).Inc()
	}
}

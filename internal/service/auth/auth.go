// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"hellofixo-service/internal/domain/auth"
	"hellofixo-service/internal/domain/referral"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/jwt"
	"hellofixo-service/internal/pkg/session"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultReferralDiscount is the discount in rupees a new user's code grants.
const DefaultReferralDiscount = 100

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository stores accounts.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, u *auth.User) error
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	FindByID(ctx context.Context, id string) (*auth.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, req *auth.UpdateProfileRequest) (*auth.User, error)
}

type ReferralCodeCreator interface {
	Create(ctx context.Context, c *referral.Code) error
}

// Sessions tracks issued access tokens in Redis.
type Sessions interface {
	CreateSession(ctx context.Context, s *session.SessionData) error
	RevokeSession(ctx context.Context, userID, jti string, expiresAt time.Time) error
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

// Disconnector closes a user's realtime connections.
type Disconnector interface {
	DisconnectUser(userID, reason string)
}

type AuthService struct {
	users       UserRepository
	codes       ReferralCodeCreator
	jwtManager  *jwt.Manager
	sessions    Sessions
	rateLimiter LoginLimiter
	hub         Disconnector
	logger      *zap.Logger
}

func NewAuthService(
	users UserRepository,
	codes ReferralCodeCreator,
	jwtManager *jwt.Manager,
	sessions Sessions,
	rateLimiter LoginLimiter,
	hub Disconnector,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		codes:       codes,
		jwtManager:  jwtManager,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		hub:         hub,
		logger:      logger,
	}
}

// ========== Registration ==========

// Register creates a customer account, gives it a referral code and logs it in.
func (s *AuthService) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", xerrors.ErrDuplicateEntry)
	}

	if req.Phone != "" {
		exists, err := s.users.ExistsByPhone(ctx, req.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check phone: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: phone already registered", xerrors.ErrDuplicateEntry)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &auth.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         auth.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Phone != "" {
		phone := req.Phone
		user.Phone = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// the account is usable without a code; log only
	code := &referral.Code{
		Code:      NewReferralCode(user.FullName),
		OwnerID:   user.ID,
		Discount:  DefaultReferralDiscount,
		Active:    true,
		CreatedAt: now,
	}
	if err := s.codes.Create(ctx, code); err != nil {
		s.logger.Error("failed to create referral code", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(ctx, user, req.IPAddress, req.UserAgent)
}

// NewReferralCode builds a shareable code from the first letters of name
// and a random suffix, e.g. "RAVI7K2Q9".
func NewReferralCode(name string) string {
	var prefix strings.Builder
	for _, r := range strings.ToUpper(name) {
		if prefix.Len() == 4 {
			break
		}
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			prefix.WriteRune(r)
		}
	}
	if prefix.Len() == 0 {
		prefix.WriteString("HFX")
	}
	id := ulid.Make().String()
	return prefix.String() + id[len(id)-5:]
}

// ========== Login ==========

func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: too many login attempts, please try again in 15 minutes", xerrors.ErrRateLimited)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("failed login", zap.String("user_id", user.ID), zap.Int64("remaining", remaining))
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, ErrInvalidCredentials)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
	}
	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return s.issue(ctx, user, req.IPAddress, req.UserAgent)
}

// Refresh trades a refresh token for a new token pair. The old refresh
// token is blacklisted so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*auth.LoginResponse, error) {
	claims, err := s.jwtManager.Verifier.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrSessionExpired, err)
	}

	revoked, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, xerrors.ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt != nil {
		if err := s.sessions.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return nil, err
		}
	}
	return s.issue(ctx, user, ip, userAgent)
}

// issue signs a token pair and records the access session.
func (s *AuthService) issue(ctx context.Context, user *auth.User, ip, userAgent string) (*auth.LoginResponse, error) {
	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}

	accessToken, accessJTI, expiresAt, err := s.jwtManager.Generator.GenerateAccessToken(user.ID, string(user.Role), phone)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, _, _, err := s.jwtManager.Generator.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	if err := s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:       accessJTI,
		UserID:    user.ID,
		Role:      string(user.Role),
		IPAddress: ip,
		UserAgent: userAgent,
		LoginAt:   now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	return &auth.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(expiresAt).Seconds()),
		ExpiresAt:    expiresAt,
		User:         user.Profile(),
	}, nil
}

// ========== Logout ==========

// Logout revokes the access token identified by jti and closes the user's sockets.
func (s *AuthService) Logout(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	if err := s.sessions.RevokeSession(ctx, userID, jti, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if s.hub != nil {
		s.hub.DisconnectUser(userID, "logged out")
	}
	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// ========== Profile ==========

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *auth.UpdateProfileRequest) (*auth.Profile, error) {
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full_name cannot be empty", xerrors.ErrInvalidInput)
		}
		req.FullName = &name
	}
	if req.Phone != nil && *req.Phone != "" {
		current, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.Phone == nil || *current.Phone != *req.Phone {
			taken, err := s.users.ExistsByPhone(ctx, *req.Phone)
			if err != nil {
				return nil, fmt.Errorf("failed to check phone: %w", err)
			}
			if taken {
				return nil, fmt.Errorf("%w: phone already registered", xerrors.ErrDuplicateEntry)
			}
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"net/http"
	"time"

	"hellofixo-service/internal/domain/auth"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service is the account surface the handler needs.
type Service interface {
	Register(ctx context.Context, req *auth.RegisterRequest) (*auth.LoginResponse, error)
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*auth.LoginResponse, error)
	Logout(ctx context.Context, userID, jti string, expiresAt time.Time) error
	GetProfile(ctx context.Context, userID string) (*auth.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req *auth.UpdateProfileRequest) (*auth.Profile, error)
}

type AuthHandler struct {
	authService Service
	logger      *zap.Logger
}

func NewAuthHandler(authService Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Registration ==========

// Register handles user registration (public endpoint)
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("registration failed", zap.String("email", req.Email), zap.Error(err))
		response.FromError(c, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", loginResp)
}

// ========== Login ==========

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.FromError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	loginResp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.FromError(c, "token refresh failed", err)
		return
	}

	response.Success(c, http.StatusOK, "token refreshed", loginResp)
}

// ========== Logout ==========

// Logout revokes the current access token (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	jti, _ := middleware.GetJTI(c)

	if err := h.authService.Logout(c.Request.Context(), userID, jti, middleware.GetTokenExpiry(c)); err != nil {
		h.logger.Error("logout failed", zap.String("user_id", userID), zap.Error(err))
		response.FromError(c, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// ========== Profile ==========

func (h *AuthHandler) GetProfile(c *gin.Context) {
	profile, err := h.authService.GetProfile(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to get profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", profile)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req auth.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	userID := middleware.MustGetUserID(c)
	profile, err := h.authService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Warn("profile update failed", zap.String("user_id", userID), zap.Error(err))
		response.FromError(c, "failed to update profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile updated", profile)
}

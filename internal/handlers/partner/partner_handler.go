// internal/handlers/partner/partner_handler.go
package partner

import (
	"context"
	"io"
	"net/http"

	"hellofixo-service/internal/domain/auth"
	"hellofixo-service/internal/domain/partner"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"
	"hellofixo-service/internal/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Current(ctx context.Context, userID, email string) (*partner.Application, error)
	UpdatePersonal(ctx context.Context, userID string, req *partner.PersonalRequest) (*partner.Application, error)
	UpdateSkills(ctx context.Context, userID string, req *partner.SkillsRequest) (*partner.Application, error)
	UploadDocument(ctx context.Context, userID, contentType string, r io.Reader) (*partner.Application, error)
	Next(ctx context.Context, userID string) (*partner.Application, error)
	Back(ctx context.Context, userID string) (*partner.Application, error)
	Submit(ctx context.Context, userID string) (*partner.Application, error)

	AdminList(ctx context.Context, filters *partner.ApplicationFilters) (*partner.ApplicationListResponse, error)
	AdminGet(ctx context.Context, id string) (*partner.Application, error)
	Review(ctx context.Context, adminID, id string, req *partner.ReviewRequest) (*partner.Application, error)
}

// Profiles prefills a new application with the account email.
type Profiles interface {
	GetProfile(ctx context.Context, userID string) (*auth.Profile, error)
}

type PartnerHandler struct {
	service  Service
	profiles Profiles
	logger   *zap.Logger
}

func NewPartnerHandler(service Service, profiles Profiles, logger *zap.Logger) *PartnerHandler {
	return &PartnerHandler{service: service, profiles: profiles, logger: logger}
}

// ========== Applicant ==========

// Current returns the caller's application, opening one on first visit.
func (h *PartnerHandler) Current(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var email string
	if profile, err := h.profiles.GetProfile(c.Request.Context(), userID); err == nil {
		email = profile.Email
	} else {
		h.logger.Warn("could not prefill partner application", zap.String("user_id", userID), zap.Error(err))
	}

	h.respond(c, "application retrieved")(h.service.Current(c.Request.Context(), userID, email))
}

func (h *PartnerHandler) UpdatePersonal(c *gin.Context) {
	var req partner.PersonalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "personal details saved")(h.service.UpdatePersonal(c.Request.Context(), middleware.MustGetUserID(c), &req))
}

func (h *PartnerHandler) UpdateSkills(c *gin.Context) {
	var req partner.SkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "skills saved")(h.service.UpdateSkills(c.Request.Context(), middleware.MustGetUserID(c), &req))
}

// UploadDocument accepts a multipart "document" field with the ID proof.
func (h *PartnerHandler) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("document")
	if err != nil {
		response.ValidationError(c, "document is required", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.ValidationError(c, "unreadable document", err)
		return
	}
	defer f.Close()

	h.respond(c, "document uploaded")(h.service.UploadDocument(c.Request.Context(), middleware.MustGetUserID(c), fh.Header.Get("Content-Type"), f))
}

func (h *PartnerHandler) Next(c *gin.Context) {
	h.respond(c, "moved to next step")(h.service.Next(c.Request.Context(), middleware.MustGetUserID(c)))
}

func (h *PartnerHandler) Back(c *gin.Context) {
	h.respond(c, "moved to previous step")(h.service.Back(c.Request.Context(), middleware.MustGetUserID(c)))
}

func (h *PartnerHandler) Submit(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	a, err := h.service.Submit(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to submit application", err)
		return
	}

	h.logger.Info("partner application submitted", zap.String("application_id", a.ID), zap.String("user_id", userID))
	response.Success(c, http.StatusOK, "application submitted", a)
}

// ========== Admin ==========

func (h *PartnerHandler) AdminList(c *gin.Context) {
	var filters partner.ApplicationFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	list, err := h.service.AdminList(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list applications", err)
		return
	}

	response.Success(c, http.StatusOK, "applications retrieved", list)
}

func (h *PartnerHandler) AdminGet(c *gin.Context) {
	h.respond(c, "application retrieved")(h.service.AdminGet(c.Request.Context(), c.Param("id")))
}

func (h *PartnerHandler) Review(c *gin.Context) {
	var req partner.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "application reviewed")(h.service.Review(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req))
}

func (h *PartnerHandler) respond(c *gin.Context, message string) func(*partner.Application, error) {
	return func(a *partner.Application, err error) {
		if err != nil {
			response.FromError(c, "partner application request failed", err)
			return
		}
		response.Success(c, http.StatusOK, message, a)
	}
}

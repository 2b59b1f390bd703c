// internal/handlers/booking/draft_handler.go
package booking

import (
	"context"
	"errors"
	"io"
	"net/http"

	"hellofixo-service/internal/domain/booking"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"
	"hellofixo-service/internal/pkg/storage"
	bookingUsecase "hellofixo-service/internal/service/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Drafts is the multi-step booking form.
type Drafts interface {
	StartDraft(ctx context.Context, userID string, req *booking.StartDraftRequest) (*bookingUsecase.DraftView, error)
	GetDraft(ctx context.Context, userID, draftID string) (*bookingUsecase.DraftView, error)
	ToggleProblem(ctx context.Context, userID, draftID string, problemID int64) (*bookingUsecase.DraftView, error)
	UpdateContact(ctx context.Context, userID, draftID string, req *booking.ContactRequest) (*bookingUsecase.DraftView, error)
	UpdateAddress(ctx context.Context, userID, draftID string, req *booking.AddressRequest) (*bookingUsecase.DraftView, error)
	LocateAddress(ctx context.Context, userID, draftID string, req *booking.LocateRequest) (*bookingUsecase.DraftView, error)
	AttachPhoto(ctx context.Context, userID, draftID, contentType string, r io.Reader) (*bookingUsecase.DraftView, error)
	UpdateSchedule(ctx context.Context, userID, draftID string, req *booking.ScheduleRequest) (*bookingUsecase.DraftView, error)
	SetPayment(ctx context.Context, userID, draftID string, req *booking.PaymentRequest) (*bookingUsecase.DraftView, error)
	ApplyReferral(ctx context.Context, userID, draftID, code string) (*bookingUsecase.DraftView, error)
	RemoveReferral(ctx context.Context, userID, draftID string) (*bookingUsecase.DraftView, error)
	Next(ctx context.Context, userID, draftID string) (*bookingUsecase.DraftView, error)
	Back(ctx context.Context, userID, draftID string) (*bookingUsecase.DraftView, error)
	Submit(ctx context.Context, userID, draftID string) (*booking.SubmitResponse, error)
}

type DraftHandler struct {
	drafts Drafts
	logger *zap.Logger
}

func NewDraftHandler(drafts Drafts, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{drafts: drafts, logger: logger}
}

// Start opens a draft for a serviceable pincode. An unserviceable pincode answers 422.
func (h *DraftHandler) Start(c *gin.Context) {
	var req booking.StartDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	view, err := h.drafts.StartDraft(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		fail(c, "failed to start booking", err)
		return
	}

	response.Success(c, http.StatusCreated, "booking started", view)
}

func (h *DraftHandler) Get(c *gin.Context) {
	view, err := h.drafts.GetDraft(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, "failed to get booking draft", err)
		return
	}

	response.Success(c, http.StatusOK, "booking draft retrieved", view)
}

func (h *DraftHandler) ToggleProblem(c *gin.Context) {
	var req booking.ToggleProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "problems updated")(h.drafts.ToggleProblem(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), req.ProblemID))
}

func (h *DraftHandler) UpdateContact(c *gin.Context) {
	var req booking.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "contact updated")(h.drafts.UpdateContact(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req))
}

func (h *DraftHandler) UpdateAddress(c *gin.Context) {
	var req booking.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "address updated")(h.drafts.UpdateAddress(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req))
}

// LocateAddress fills the address from the device position.
func (h *DraftHandler) LocateAddress(c *gin.Context) {
	var req booking.LocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "address located")(h.drafts.LocateAddress(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req))
}

// AttachPhoto accepts a multipart "photo" field.
func (h *DraftHandler) AttachPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("photo")
	if err != nil {
		response.ValidationError(c, "photo is required", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.ValidationError(c, "unreadable photo", err)
		return
	}
	defer f.Close()

	h.respond(c, "photo attached")(h.drafts.AttachPhoto(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), fh.Header.Get("Content-Type"), f))
}

func (h *DraftHandler) UpdateSchedule(c *gin.Context) {
	var req booking.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "schedule updated")(h.drafts.UpdateSchedule(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req))
}

func (h *DraftHandler) SetPayment(c *gin.Context) {
	var req booking.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "payment updated")(h.drafts.SetPayment(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req))
}

func (h *DraftHandler) ApplyReferral(c *gin.Context) {
	var req booking.ReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.respond(c, "referral code checked")(h.drafts.ApplyReferral(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), req.Code))
}

func (h *DraftHandler) RemoveReferral(c *gin.Context) {
	h.respond(c, "referral code removed")(h.drafts.RemoveReferral(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id")))
}

func (h *DraftHandler) Next(c *gin.Context) {
	h.respond(c, "moved to next step")(h.drafts.Next(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id")))
}

func (h *DraftHandler) Back(c *gin.Context) {
	h.respond(c, "moved to previous step")(h.drafts.Back(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id")))
}

// Submit places the booking. Failures keep the draft for redisplay.
func (h *DraftHandler) Submit(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	draftID := c.Param("id")

	result, err := h.drafts.Submit(c.Request.Context(), userID, draftID)
	if err != nil {
		h.logger.Warn("booking submission failed",
			zap.String("user_id", userID),
			zap.String("draft_id", draftID),
			zap.Error(err),
		)
		fail(c, "failed to submit booking", err)
		return
	}

	response.Success(c, http.StatusCreated, "booking placed", result)
}

func (h *DraftHandler) respond(c *gin.Context, message string) func(*bookingUsecase.DraftView, error) {
	return func(view *bookingUsecase.DraftView, err error) {
		if err != nil {
			fail(c, "failed to update booking", err)
			return
		}
		response.Success(c, http.StatusOK, message, view)
	}
}

// fail writes err, attaching the offending field for validation errors.
func fail(c *gin.Context, message string, err error) {
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		response.FromError(c, message, err, verr)
		return
	}
	response.FromError(c, message, err)
}

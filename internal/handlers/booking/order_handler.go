// internal/handlers/booking/order_handler.go
package booking

import (
	"context"
	"net/http"

	"hellofixo-service/internal/domain/booking"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Orders covers submitted bookings for customers and admins.
type Orders interface {
	History(ctx context.Context, userID string, filters *booking.HistoryFilters) (*booking.BookingListResponse, error)
	Get(ctx context.Context, userID, bookingID string) (*booking.Booking, error)
	Cancel(ctx context.Context, userID, bookingID string) (*booking.Booking, error)
	DecideQuote(ctx context.Context, userID, bookingID string, approve bool) (*booking.Booking, error)

	AdminList(ctx context.Context, filters *booking.HistoryFilters) (*booking.BookingListResponse, error)
	AdminGet(ctx context.Context, bookingID string) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, req *booking.UpdateStatusRequest) (*booking.Booking, error)
	ShareQuote(ctx context.Context, bookingID string, req *booking.ShareQuoteRequest) (*booking.Booking, error)
}

type OrderHandler struct {
	orders Orders
	logger *zap.Logger
}

func NewOrderHandler(orders Orders, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// ========== Customer ==========

func (h *OrderHandler) History(c *gin.Context) {
	var filters booking.HistoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	list, err := h.orders.History(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list bookings", err)
		return
	}

	response.Success(c, http.StatusOK, "bookings retrieved", list)
}

func (h *OrderHandler) Get(c *gin.Context) {
	b, err := h.orders.Get(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to get booking", err)
		return
	}

	response.Success(c, http.StatusOK, "booking retrieved", b)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	b, err := h.orders.Cancel(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to cancel booking", err)
		return
	}

	h.logger.Info("booking cancelled", zap.String("booking_id", b.ID), zap.String("user_id", userID))
	response.Success(c, http.StatusOK, "booking cancelled", b)
}

// DecideQuote approves or rejects the shared repair quotation.
func (h *OrderHandler) DecideQuote(c *gin.Context) {
	var req booking.QuoteDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	b, err := h.orders.DecideQuote(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), req.Approve)
	if err != nil {
		response.FromError(c, "failed to record quotation decision", err)
		return
	}

	msg := "quotation rejected"
	if req.Approve {
		msg = "quotation approved"
	}
	response.Success(c, http.StatusOK, msg, b)
}

// ========== Admin ==========

func (h *OrderHandler) AdminList(c *gin.Context) {
	var filters booking.HistoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	list, err := h.orders.AdminList(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list bookings", err)
		return
	}

	response.Success(c, http.StatusOK, "bookings retrieved", list)
}

func (h *OrderHandler) AdminGet(c *gin.Context) {
	b, err := h.orders.AdminGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to get booking", err)
		return
	}

	response.Success(c, http.StatusOK, "booking retrieved", b)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req booking.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	b, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to update booking status", err)
		return
	}

	adminID, _ := middleware.GetUserID(c)
	h.logger.Info("booking status updated",
		zap.String("booking_id", b.ID),
		zap.String("status", string(b.Status)),
		zap.String("admin_id", adminID),
	)
	response.Success(c, http.StatusOK, "booking status updated", b)
}

func (h *OrderHandler) ShareQuote(c *gin.Context) {
	var req booking.ShareQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	b, err := h.orders.ShareQuote(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to share quotation", err)
		return
	}

	response.Success(c, http.StatusOK, "quotation shared", b)
}

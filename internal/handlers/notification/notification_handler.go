// internal/handlers/notification/notification_handler.go
package notification

import (
	"context"
	"net/http"
	"strconv"

	"hellofixo-service/internal/domain/notification"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	List(ctx context.Context, userID string, filters *notification.ListFilters) (*notification.ListResponse, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, id int64) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, id int64) error
}

type NotificationHandler struct {
	service Service
}

func NewNotificationHandler(service Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// GetNotifications lists the inbox (?unread=true&page=1&page_size=20)
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	var filters notification.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.service.List(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.FromError(c, "failed to get notifications", err)
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", result)
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to get unread count", err)
		return
	}

	response.Success(c, http.StatusOK, "unread count retrieved", gin.H{"unread_count": count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), middleware.MustGetUserID(c), id); err != nil {
		response.FromError(c, "failed to mark as read", err)
		return
	}

	response.Success(c, http.StatusOK, "notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.service.MarkAllAsRead(c.Request.Context(), middleware.MustGetUserID(c)); err != nil {
		response.FromError(c, "failed to mark all as read", err)
		return
	}

	response.Success(c, http.StatusOK, "all notifications marked as read", nil)
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.MustGetUserID(c), id); err != nil {
		response.FromError(c, "failed to delete notification", err)
		return
	}

	response.Success(c, http.StatusOK, "notification deleted", nil)
}

func notificationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "invalid notification id", err)
		return 0, false
	}
	return id, true
}

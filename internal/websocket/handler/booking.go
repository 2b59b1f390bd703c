// internal/websocket/handler/booking.go
package handlers

import (
	"context"
	"errors"
	"fmt"

	"hellofixo-service/internal/domain/booking"
	wstypes "hellofixo-service/internal/domain/websocket"
	xerrors "hellofixo-service/internal/pkg/errors"
	ws "hellofixo-service/internal/websocket"
)

// BookingReader loads a booking owned by a user.
type BookingReader interface {
	Get(ctx context.Context, userID, bookingID string) (*booking.Booking, error)
}

// BookingHandler answers status queries so a client can resync after reconnecting.
type BookingHandler struct {
	bookings BookingReader
}

func NewBookingHandler(bookings BookingReader) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func (h *BookingHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeBookingStatus}
}

func (h *BookingHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeBookingStatus:
		return h.handleStatus(ctx, client, msg)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *BookingHandler) handleStatus(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := ws.DecodeData(msg.Data, &req); err != nil || req.BookingID == "" {
		return ws.NewClientError("invalid_request", "booking_id is required")
	}

	b, err := h.bookings.Get(ctx, client.UserID(), req.BookingID)
	if errors.Is(err, xerrors.ErrNotFound) || errors.Is(err, xerrors.ErrForbidden) {
		return ws.NewClientError("booking_not_found", "Booking not found")
	}
	if err != nil {
		return fmt.Errorf("load booking %s: %w", req.BookingID, err)
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeBookingStatus, wstypes.BookingStatusData{
		BookingID: b.ID,
		OrderID:   b.OrderID,
		Status:    string(booking.NormalizeStatus(string(b.Status))),
	}))
	return nil
}

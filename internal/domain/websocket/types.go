// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	// Booking events (server -> client)
	EventTypeBookingStatus EventType = "booking:status"
	EventTypeQuoteShared   EventType = "booking:quote"

	// Wallet / onboarding events (server -> client)
	EventTypeWalletCredited  EventType = "wallet:credited"
	EventTypePartnerReviewed EventType = "partner:reviewed"

	EventTypeSessionRevoked EventType = "session:revoked"

	// Inbox badge (server -> client)
	EventTypeUnreadCount EventType = "notification:unread"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BookingStatusData is pushed to a booking owner when its status changes.
type BookingStatusData struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Previous  string `json:"previous,omitempty"`
}

// QuoteData is pushed when a repair quote is shared.
type QuoteData struct {
	BookingID   string  `json:"booking_id"`
	QuoteID     string  `json:"quote_id"`
	TotalAmount float64 `json:"total_amount"`
}

type WalletCreditData struct {
	Amount  float64 `json:"amount"`
	Source  string  `json:"source"`
	Balance float64 `json:"balance"`
}

type PartnerReviewData struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
	Note          string `json:"note,omitempty"`
}

// UnreadCountData keeps the client's inbox badge in sync.
type UnreadCountData struct {
	Unread int `json:"unread"`
}

// NewMessage builds a timestamped message with a sortable id.
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}

// internal/service/notification/service.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"hellofixo-service/internal/domain/auth"
	"hellofixo-service/internal/domain/notification"
	wstypes "hellofixo-service/internal/domain/websocket"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	persistTimeout  = 5 * time.Second
	lookupTimeout   = 5 * time.Second
)

type Repository interface {
	Create(ctx context.Context, n *notification.Notification) error
	List(ctx context.Context, userID string, filters *notification.ListFilters) ([]*notification.Notification, int64, error)
	Summary(ctx context.Context, userID string) (*notification.Summary, error)
	MarkAsRead(ctx context.Context, userID string, id int64) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, id int64) error
}

// Pusher delivers realtime events to connected clients.
type Pusher interface {
	Notify(userID string, eventType wstypes.EventType, data interface{})
}

// Mailer sends an HTML email.
type Mailer interface {
	Send(to, subject, bodyHTML string) error
}

// Recipients resolves a user's email address.
type Recipients interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// NotificationService pushes events over the websocket hub and keeps an
// inbox copy of the ones a user should see later. Inbox entries are also
// emailed when a mailer is configured.
type NotificationService struct {
	repo   Repository
	pusher Pusher
	logger *zap.Logger

	mailer     Mailer
	recipients Recipients
	mailWG     sync.WaitGroup
}

func NewNotificationService(repo Repository, pusher Pusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher, logger: logger}
}

// WithEmail enables the email channel.
func (s *NotificationService) WithEmail(mailer Mailer, recipients Recipients) *NotificationService {
	s.mailer = mailer
	s.recipients = recipients
	return s
}

// Wait blocks until queued emails have been handed to the mail server.
func (s *NotificationService) Wait() {
	s.mailWG.Wait()
}

// Notify pushes the event immediately, then stores it when it has an inbox entry.
// Storage failures are logged; the push has already happened.
func (s *NotificationService) Notify(userID string, eventType wstypes.EventType, data interface{}) {
	s.pusher.Notify(userID, eventType, data)

	n, ok := describe(data)
	if !ok {
		return
	}
	n.UserID = userID
	n.Event = string(eventType)
	n.Metadata = metadata(data)

	s.email(n)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("user_id", userID),
			zap.String("event", n.Event),
			zap.Error(err),
		)
		return
	}
	s.pushUnread(ctx, userID)
}

func (s *NotificationService) List(ctx context.Context, userID string, filters *notification.ListFilters) (*notification.ListResponse, error) {
	if filters == nil {
		filters = &notification.ListFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}

	items, total, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	summary, err := s.repo.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &notification.ListResponse{
		Notifications: items,
		Summary:       *summary,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    totalPages,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	summary, err := s.repo.Summary(ctx, userID)
	if err != nil {
		return 0, err
	}
	return summary.TotalUnread, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID string, id int64) error {
	if err := s.repo.MarkAsRead(ctx, userID, id); err != nil {
		return err
	}
	s.pushUnread(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark all as read: %w", err)
	}
	s.pusher.Notify(userID, wstypes.EventTypeUnreadCount, wstypes.UnreadCountData{Unread: 0})
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.pushUnread(ctx, userID)
	return nil
}

// email sends n in the background; SMTP round trips stay off the request path.
func (s *NotificationService) email(n *notification.Notification) {
	if s.mailer == nil || s.recipients == nil {
		return
	}
	title, message, userID := n.Title, n.Message, n.UserID

	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		user, err := s.recipients.FindByID(ctx, userID)
		if err != nil {
			s.logger.Warn("email recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
			return
		}
		body := "<h2>" + html.EscapeString(title) + "</h2><p>" + html.EscapeString(message) + "</p>"
		if err := s.mailer.Send(user.Email, title, body); err != nil {
			s.logger.Warn("notification email failed", zap.String("user_id", userID), zap.Error(err))
		}
	}()
}

// pushUnread refreshes the badge count on the user's open connections.
func (s *NotificationService) pushUnread(ctx context.Context, userID string) {
	count, err := s.UnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to get unread count", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.pusher.Notify(userID, wstypes.EventTypeUnreadCount, wstypes.UnreadCountData{Unread: count})
}

// describe renders the inbox entry for events worth keeping.
func describe(data interface{}) (*notification.Notification, bool) {
	switch d := data.(type) {
	case wstypes.BookingStatusData:
		return &notification.Notification{
			Title:   "Booking " + d.OrderID + " updated",
			Message: "Your booking is now " + humanize(d.Status) + ".",
		}, true
	case wstypes.QuoteData:
		return &notification.Notification{
			Title:   "Repair quotation ready",
			Message: fmt.Sprintf("Your technician shared a quotation of ₹%.0f. Approve or reject it from your bookings.", d.TotalAmount),
		}, true
	case wstypes.WalletCreditData:
		return &notification.Notification{
			Title:   "Wallet credited",
			Message: fmt.Sprintf("₹%.0f was added to your wallet. Balance: ₹%.0f.", d.Amount, d.Balance),
		}, true
	case wstypes.PartnerReviewData:
		msg := "Your partner application was " + d.Status + "."
		if d.Note != "" {
			msg += " " + d.Note
		}
		return &notification.Notification{Title: "Partner application reviewed", Message: msg}, true
	}
	return nil, false
}

func humanize(status string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(status)), "_", " ")
}

// metadata flattens an event payload into the JSON object stored with the entry.
func metadata(data interface{}) map[string]interface{} {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hellofixo-service/internal/domain/auth"
	"hellofixo-service/internal/domain/notification"
	wstypes "hellofixo-service/internal/domain/websocket"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memInbox struct {
	mu      sync.Mutex
	items   []*notification.Notification
	failing bool
}

func (m *memInbox) Create(_ context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("db down")
	}
	n.ID = int64(len(m.items) + 1)
	m.items = append(m.items, n)
	return nil
}

func (m *memInbox) List(_ context.Context, userID string, f *notification.ListFilters) ([]*notification.Notification, int64, error) {
	var out []*notification.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!f.UnreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memInbox) Summary(_ context.Context, userID string) (*notification.Summary, error) {
	var s notification.Summary
	for _, n := range m.items {
		if n.UserID != userID {
			continue
		}
		s.Total++
		if n.IsRead {
			s.TotalRead++
		} else {
			s.TotalUnread++
		}
	}
	return &s, nil
}

func (m *memInbox) MarkAsRead(_ context.Context, userID string, id int64) error {
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (m *memInbox) MarkAllAsRead(_ context.Context, userID string) error {
	for _, n := range m.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *memInbox) Delete(context.Context, string, int64) error { return nil }

type pushed struct {
	event wstypes.EventType
	data  interface{}
}

type recordingPusher struct {
	events []pushed
}

func (p *recordingPusher) Notify(_ string, eventType wstypes.EventType, data interface{}) {
	p.events = append(p.events, pushed{eventType, data})
}

func TestNotifyStoresInboxEntryAndPushesBadge(t *testing.T) {
	inbox := &memInbox{}
	pusher := &recordingPusher{}
	svc := NewNotificationService(inbox, pusher, zap.NewNop())

	svc.Notify("u1", wstypes.EventTypeBookingStatus, wstypes.BookingStatusData{
		BookingID: "b1", OrderID: "HF-01", Status: "technician_assigned",
	})

	require.Len(t, inbox.items, 1)
	n := inbox.items[0]
	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, string(wstypes.EventTypeBookingStatus), n.Event)
	assert.Contains(t, n.Title, "HF-01")
	assert.Contains(t, n.Message, "technician assigned")
	assert.Equal(t, "b1", n.Metadata["booking_id"])

	require.Len(t, pusher.events, 2)
	assert.Equal(t, wstypes.EventTypeBookingStatus, pusher.events[0].event)
	assert.Equal(t, wstypes.EventTypeUnreadCount, pusher.events[1].event)
	assert.Equal(t, wstypes.UnreadCountData{Unread: 1}, pusher.events[1].data)
}

func TestNotifySkipsTransientEvents(t *testing.T) {
	inbox := &memInbox{}
	pusher := &recordingPusher{}
	svc := NewNotificationService(inbox, pusher, zap.NewNop())

	svc.Notify("u1", wstypes.EventTypeSessionRevoked, map[string]string{"reason": "logout"})

	assert.Empty(t, inbox.items)
	require.Len(t, pusher.events, 1)
}

func TestNotifyStillPushesWhenStoreFails(t *testing.T) {
	inbox := &memInbox{failing: true}
	pusher := &recordingPusher{}
	svc := NewNotificationService(inbox, pusher, zap.NewNop())

	svc.Notify("u1", wstypes.EventTypeWalletCredited, wstypes.WalletCreditData{Amount: 100, Balance: 300})

	require.Len(t, pusher.events, 1)
	assert.Equal(t, wstypes.EventTypeWalletCredited, pusher.events[0].event)
}

func TestListAndMarkRead(t *testing.T) {
	inbox := &memInbox{}
	pusher := &recordingPusher{}
	svc := NewNotificationService(inbox, pusher, zap.NewNop())
	ctx := context.Background()

	svc.Notify("u1", wstypes.EventTypeQuoteShared, wstypes.QuoteData{BookingID: "b1", TotalAmount: 1499})
	svc.Notify("u1", wstypes.EventTypePartnerReviewed, wstypes.PartnerReviewData{Status: "approved", Note: "Welcome aboard"})
	svc.Notify("u2", wstypes.EventTypeQuoteShared, wstypes.QuoteData{BookingID: "b2"})

	list, err := svc.List(ctx, "u1", &notification.ListFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, maxPageSize, list.PageSize)
	assert.Equal(t, 2, list.Summary.TotalUnread)
	assert.Contains(t, list.Notifications[0].Message, "₹1499")
	assert.Contains(t, list.Notifications[1].Message, "Welcome aboard")

	require.NoError(t, svc.MarkAsRead(ctx, "u1", list.Notifications[0].ID))
	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, svc.MarkAsRead(ctx, "u1", 3), xerrors.ErrNotFound)

	require.NoError(t, svc.MarkAllAsRead(ctx, "u1"))
	count, err = svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"|"+subject+"|"+body)
	return nil
}

type usersFunc func(string) (*auth.User, error)

func (f usersFunc) FindByID(_ context.Context, id string) (*auth.User, error) {
	return f(id)
}

func TestNotifyEmailsInboxEntries(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(&memInbox{}, &recordingPusher{}, zap.NewNop()).
		WithEmail(mailer, usersFunc(func(id string) (*auth.User, error) {
			return &auth.User{ID: id, Email: "asha@example.com"}, nil
		}))

	svc.Notify("u1", wstypes.EventTypeWalletCredited, wstypes.WalletCreditData{Amount: 100, Balance: 100})
	svc.Notify("u1", wstypes.EventTypeSessionRevoked, nil)
	svc.Wait()

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0], "asha@example.com|Wallet credited|")
	assert.Contains(t, mailer.sent[0], "<h2>Wallet credited</h2>")
}

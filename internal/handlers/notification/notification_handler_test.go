package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"hellofixo-service/internal/domain/notification"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInbox struct {
	Service
	filters *notification.ListFilters
	read    []int64
}

func (f *fakeInbox) List(_ context.Context, _ string, filters *notification.ListFilters) (*notification.ListResponse, error) {
	f.filters = filters
	return &notification.ListResponse{
		Notifications: []*notification.Notification{{ID: 7, Title: "Wallet credited"}},
		Total:         1,
		Page:          1,
		PageSize:      20,
		TotalPages:    1,
	}, nil
}

func (f *fakeInbox) UnreadCount(_ context.Context, _ string) (int, error) {
	return 3, nil
}

func (f *fakeInbox) MarkAsRead(_ context.Context, _ string, id int64) error {
	if id == 404 {
		return xerrors.ErrNotFound
	}
	f.read = append(f.read, id)
	return nil
}

func inboxRouter(f *fakeInbox) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNotificationHandler(f)
	r := gin.New()
	g := r.Group("", func(c *gin.Context) { c.Set("user_id", "u1") })
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/count/unread", h.GetUnreadCount)
	g.PATCH("/notifications/:id/read", h.MarkAsRead)
	return r
}

func TestGetNotificationsBindsFilters(t *testing.T) {
	f := &fakeInbox{}
	w := httptest.NewRecorder()
	inboxRouter(f).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?unread=true&page=2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.filters)
	assert.True(t, f.filters.UnreadOnly)
	assert.Equal(t, 2, f.filters.Page)
	assert.Contains(t, w.Body.String(), `"title":"Wallet credited"`)
}

func TestGetUnreadCount(t *testing.T) {
	w := httptest.NewRecorder()
	inboxRouter(&fakeInbox{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications/count/unread", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unread_count":3`)
}

func TestMarkAsRead(t *testing.T) {
	f := &fakeInbox{}
	mark := func(id string) int {
		w := httptest.NewRecorder()
		inboxRouter(f).ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/notifications/"+id+"/read", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, mark("7"))
	assert.Equal(t, []int64{7}, f.read)
	assert.Equal(t, http.StatusBadRequest, mark("abc"))
	assert.Equal(t, http.StatusBadRequest, mark("0"))
	assert.Equal(t, http.StatusNotFound, mark("404"))
}

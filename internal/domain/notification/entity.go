// internal/domain/notification/entity.go
package notification

import "time"

// Notification is a stored copy of an event pushed to a user, kept so the
// app can show an inbox after reconnecting.
type Notification struct {
	ID        int64                  `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	Event     string                 `json:"event" db:"event"`
	Title     string                 `json:"title" db:"title"`
	Message   string                 `json:"message" db:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	IsRead    bool                   `json:"is_read" db:"is_read"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	ReadAt    *time.Time             `json:"read_at,omitempty" db:"read_at"`
}

// DTOs

type ListFilters struct {
	UnreadOnly bool `form:"unread"`
	Page       int  `form:"page"`
	PageSize   int  `form:"page_size"`
}

type Summary struct {
	TotalUnread int `json:"total_unread"`
	TotalRead   int `json:"total_read"`
	Total       int `json:"total"`
}

type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
	Summary       Summary         `json:"summary"`
	Total         int64           `json:"total"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
	TotalPages    int             `json:"total_pages"`
}

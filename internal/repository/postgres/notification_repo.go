// internal/repository/postgres/notification_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hellofixo-service/internal/domain/notification"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, user_id, event, title, message, metadata, is_read, created_at, read_at`

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	var metadataJSON []byte
	if n.Metadata != nil {
		var err error
		if metadataJSON, err = json.Marshal(n.Metadata); err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, event, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, n.UserID, n.Event, n.Title, n.Message, metadataJSON).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context, userID string, filters *notification.ListFilters) ([]*notification.Notification, int64, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	if filters.UnreadOnly {
		conditions = append(conditions, "is_read = false")
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, notificationColumns, where)
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	items := []*notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *NotificationRepository) Summary(ctx context.Context, userID string) (*notification.Summary, error) {
	var s notification.Summary
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_read = false),
			COUNT(*) FILTER (WHERE is_read = true)
		FROM notifications
		WHERE user_id = $1
	`, userID).Scan(&s.Total, &s.TotalUnread, &s.TotalRead)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification summary: %w", err)
	}
	return &s, nil
}

// MarkAsRead is idempotent for the owner; other users' ids are not found.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, userID string, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification", xerrors.ErrNotFound)
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE user_id = $1 AND is_read = false
	`, userID)
	return err
}

func (r *NotificationRepository) Delete(ctx context.Context, userID string, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification", xerrors.ErrNotFound)
	}
	return nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var metadataJSON []byte
	if err := row.Scan(
		&n.ID, &n.UserID, &n.Event, &n.Title, &n.Message,
		&metadataJSON, &n.IsRead, &n.CreatedAt, &n.ReadAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &n, nil
}

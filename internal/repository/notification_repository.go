package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careconnect/careconnect-api/internal/models"
)

// NotificationRepository persists user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, receiver_email, message, created_at, viewed)
	VALUES (:id, :receiver_email, :message, :created_at, :viewed)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByReceiver returns a user's notifications, newest first.
func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverEmail string) ([]models.Notification, error) {
	const query = `SELECT id, receiver_email, message, created_at, viewed
	FROM notifications WHERE receiver_email = $1 ORDER BY created_at DESC, id`
	notifications := make([]models.Notification, 0)
	if err := r.db.SelectContext(ctx, &notifications, query, receiverEmail); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns how many of a user's notifications are unread.
func (r *NotificationRepository) UnreadCount(ctx context.Context, receiverEmail string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE receiver_email = $1 AND viewed = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, receiverEmail); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAllRead flags every notification of a user as viewed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiverEmail string) error {
	const query = `UPDATE notifications SET viewed = TRUE WHERE receiver_email = $1 AND viewed = FALSE`
	if _, err := r.db.ExecContext(ctx, query, receiverEmail); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// Delete removes one notification owned by the receiver.
func (r *NotificationRepository) Delete(ctx context.Context, id, receiverEmail string) error {
	const query = `DELETE FROM notifications WHERE id = $1 AND receiver_email = $2`
	res, err := r.db.ExecContext(ctx, query, id, receiverEmail)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return guardNamedRows(res, "notification not found")
}

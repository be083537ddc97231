package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
)

/*
	CREATE TABLE notifications (
		id         UUID PRIMARY KEY,
		user_id    UUID REFERENCES users(id) ON DELETE CASCADE, -- NULL = broadcast
		title      TEXT NOT NULL,
		body       TEXT NOT NULL DEFAULT '',
		read       BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, n.ID, n.UserID, n.Title, n.Body, n.CreatedAt)
	return err
}

// ListForUser includes broadcast rows (NULL user_id) alongside the user's
// own notifications.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrInvalidUserID
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, body, read, created_at
		FROM notifications
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifs []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Title,
			&n.Body,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkRead flips the read flag on the user's own rows and on broadcast rows.
// A broadcast row has a single shared flag, so the first reader dismisses it
// for everyone; per-user read state would need a fanout table.
func (r *NotificationRepo) MarkRead(ctx context.Context, notifID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = true
		WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
	`, notifID, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

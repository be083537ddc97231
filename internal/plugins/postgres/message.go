package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
)

/*
	CREATE TABLE messages (
		id              UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id       UUID NOT NULL REFERENCES users(id),
		body            TEXT NOT NULL,
		read            BOOLEAN NOT NULL DEFAULT false,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) CreateMessage(ctx context.Context, m *domain.Message) error {
	if m.ConversationID == uuid.Nil {
		return domain.ErrInvalidConversationID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.ConversationID, m.SenderID, m.Body, m.CreatedAt)
	return err
}

func (r *MessageRepo) ListByConversation(ctx context.Context, convID uuid.UUID) ([]domain.Message, error) {
	if convID == uuid.Nil {
		return nil, domain.ErrInvalidConversationID
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, body, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.SenderID,
			&m.Body,
			&m.Read,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead only flips messages in conversations the requester belongs to,
// and never the requester's own messages.
func (r *MessageRepo) MarkRead(ctx context.Context, msgID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages m
		SET read = true
		WHERE m.id = $1
		  AND m.sender_id <> $2
		  AND EXISTS (
			SELECT 1 FROM conversation_participants cp
			WHERE cp.conversation_id = m.conversation_id AND cp.user_id = $2
		  )
	`, msgID, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

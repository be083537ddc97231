package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
)

/*
	CREATE TABLE conversations (
		id          UUID PRIMARY KEY,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE conversation_participants (
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		user_id         UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (conversation_id, user_id)
	);
*/

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// CreateConversation writes the conversation and its membership rows in one
// transaction so a half-created conversation is never visible.
func (r *ConversationRepo) CreateConversation(ctx context.Context, c *domain.Conversation) error {
	if c.ID == uuid.Nil {
		return domain.ErrInvalidConversationID
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO conversations (id) VALUES ($1)
		RETURNING created_at
	`, c.ID).Scan(&c.CreatedAt); err != nil {
		return err
	}
	for _, p := range c.Participants {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2)
		`, c.ID, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ConversationRepo) GetConversationByID(ctx context.Context, convID uuid.UUID) (*domain.Conversation, error) {
	if convID == uuid.Nil {
		return nil, domain.ErrInvalidConversationID
	}
	conv := &domain.Conversation{ID: convID}
	err := r.db.QueryRowContext(ctx, `
		SELECT created_at FROM conversations WHERE id = $1
	`, convID).Scan(&conv.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM conversation_participants WHERE conversation_id = $1
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p uuid.UUID
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		conv.Participants = append(conv.Participants, p)
	}
	return conv, rows.Err()
}

func (r *ConversationRepo) ListConversationsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrInvalidUserID
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.created_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var convs []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) IsParticipant(ctx context.Context, convID, userID uuid.UUID) (bool, error) {
	if convID == uuid.Nil {
		return false, domain.ErrInvalidConversationID
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`, convID, userID).Scan(&exists)
	return exists, err
}

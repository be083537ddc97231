package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository handles dashboard accounts.
type UserRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
}

// ConversationRepository handles conversation lifecycle and membership.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversationByID(ctx context.Context, convID uuid.UUID) (*Conversation, error)
	ListConversationsForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	IsParticipant(ctx context.Context, convID, userID uuid.UUID) (bool, error)
}

// MessageRepository persists messages. Writes complete before the relay is
// asked to push; the relay never touches storage.
type MessageRepository interface {
	CreateMessage(ctx context.Context, m *Message) error
	ListByConversation(ctx context.Context, convID uuid.UUID) ([]Message, error)
	// MarkRead flips the read flag; the recipient check keeps users from
	// acknowledging messages in conversations they are not part of.
	MarkRead(ctx context.Context, msgID, userID uuid.UUID) error
}

// NotificationRepository persists notifications, including broadcast rows
// (nil UserID) which every user's listing includes.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	MarkRead(ctx context.Context, notifID, userID uuid.UUID) error
}

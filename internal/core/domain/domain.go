package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleCompany  Role = "company"
	RoleAdmin    Role = "admin"
)

// User is a dashboard account: a customer, a company operator or an admin.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Conversation is a channel grouping messages between two or more users.
type Conversation struct {
	ID           uuid.UUID
	Participants []uuid.UUID
	CreatedAt    time.Time
}

func NewConversation(participants []uuid.UUID) *Conversation {
	return &Conversation{
		ID:           uuid.New(),
		Participants: participants,
		CreatedAt:    time.Now(),
	}
}

// Message is a persisted chat entry. The relay forwards it verbatim after the
// HTTP layer has written it.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Body           string    `json:"body"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// Notification targets a single user, or every user when UserID is nil
// (an admin broadcast).
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

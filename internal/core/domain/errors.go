package domain

import "errors"

var (
	ErrInvalidConversationID = errors.New("invalid conversation id")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrNotParticipant        = errors.New("user is not a conversation participant")
	ErrInvalidUserID         = errors.New("invalid user id")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrMessageNotFound       = errors.New("message not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrEmptyBody             = errors.New("empty message body")
)

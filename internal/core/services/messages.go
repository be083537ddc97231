package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/pkg/logging"
)

var messageTracer = otel.Tracer("message-service")

// MessageService persists messages and conversations, then asks the relay
// for a best-effort push. The write is durable before any dispatch happens;
// a failed or skipped push is never surfaced to the caller.
type MessageService struct {
	log        *slog.Logger
	msgRepo    domain.MessageRepository
	convRepo   domain.ConversationRepository
	dispatcher contracts.Dispatcher
}

func NewMessageService(
	log *slog.Logger,
	msgRepo domain.MessageRepository,
	convRepo domain.ConversationRepository,
	dispatcher contracts.Dispatcher,
) *MessageService {
	return &MessageService{
		log:        log,
		msgRepo:    msgRepo,
		convRepo:   convRepo,
		dispatcher: dispatcher,
	}
}

// Send stores the message and pushes it: a conversation-message event to the
// channel, plus a direct message event to each other participant so inboxes
// update even when the conversation view is not open.
func (s *MessageService) Send(ctx context.Context, senderID, convID uuid.UUID, body string) (*domain.Message, error) {
	ctx, span := messageTracer.Start(ctx, "MessageService.Send", trace.WithAttributes(
		attribute.String("conversation_id", convID.String()),
		attribute.String("sender_id", senderID.String()),
	))
	defer span.End()
	if body == "" {
		return nil, domain.ErrEmptyBody
	}
	conv, err := s.convRepo.GetConversationByID(ctx, convID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !isParticipant(conv, senderID) {
		return nil, domain.ErrNotParticipant
	}
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now(),
	}
	if err := s.msgRepo.CreateMessage(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "messages - send - persist failed", logging.Conversation(convID.String()), logging.Err(err))
		return nil, fmt.Errorf("persist message: %w", err)
	}
	// Durable from here on. Push is advisory only.
	s.dispatcher.SendToChannel(ctx, convID.String(), domain.EventConversationMessage, msg)
	for _, p := range conv.Participants {
		if p == senderID {
			continue
		}
		delivered := s.dispatcher.SendToUser(ctx, p.String(), domain.EventMessage, msg)
		s.log.InfoContext(ctx, "messages - send - direct push", logging.Recipient(p.String()), slog.Bool("delivered", delivered))
	}
	return msg, nil
}

func (s *MessageService) List(ctx context.Context, requesterID, convID uuid.UUID) ([]domain.Message, error) {
	ok, err := s.convRepo.IsParticipant(ctx, convID, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotParticipant
	}
	return s.msgRepo.ListByConversation(ctx, convID)
}

func (s *MessageService) MarkRead(ctx context.Context, requesterID, msgID uuid.UUID) error {
	if err := s.msgRepo.MarkRead(ctx, msgID, requesterID); err != nil {
		s.log.ErrorContext(ctx, "messages - mark read failed", slog.String("message_id", msgID.String()), logging.Err(err))
		return err
	}
	return nil
}

// CreateConversation opens a channel between the creator and the given
// participants.
func (s *MessageService) CreateConversation(ctx context.Context, creatorID uuid.UUID, participantIDs []uuid.UUID) (*domain.Conversation, error) {
	ctx, span := messageTracer.Start(ctx, "MessageService.CreateConversation")
	defer span.End()
	// Dedupe so repeated ids never trip the participants primary key.
	members := []uuid.UUID{creatorID}
	seen := map[uuid.UUID]struct{}{creatorID: {}}
	for _, p := range participantIDs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		members = append(members, p)
	}
	if len(members) < 2 {
		return nil, domain.ErrInvalidConversationID
	}
	conv := domain.NewConversation(members)
	if err := s.convRepo.CreateConversation(ctx, conv); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "messages - create conversation failed", logging.Err(err))
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *MessageService) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	return s.convRepo.ListConversationsForUser(ctx, userID)
}

func isParticipant(conv *domain.Conversation, userID uuid.UUID) bool {
	for _, p := range conv.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"errors"
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

var notificationTracer = otel.Tracer("notification-service")

// NotificationService persists notifications and attempts live push. The
// returned delivered flag is informational only; the HTTP layer answers 201
// either way because the row is already durable.
type NotificationService struct {
	log        *slog.Logger
	repo       domain.NotificationRepository
	dispatcher contracts.Dispatcher
}

func NewNotificationService(
	log *slog.Logger,
	repo domain.NotificationRepository,
	dispatcher contracts.Dispatcher,
) *NotificationService {
	return &NotificationService{
		log:        log,
		repo:       repo,
		dispatcher: dispatcher,
	}
}

func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, title, body string) (*domain.Notification, bool, error) {
	ctx, span := notificationTracer.Start(ctx, "NotificationService.Create", trace.WithAttributes(
		attribute.String("recipient_id", userID.String()),
	))
	defer span.End()
	if userID == uuid.Nil {
		return nil, false, domain.ErrInvalidUserID
	}
	if title == "" {
		return nil, false, errors.New("notification title is required")
	}
	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    &userID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "notifications - create - persist failed", logging.Recipient(userID.String()), logging.Err(err))
		return nil, false, fmt.Errorf("persist notification: %w", err)
	}
	delivered := s.dispatcher.SendToUser(ctx, userID.String(), domain.EventNotification, n)
	span.SetAttributes(attribute.Bool("relay.delivered", delivered))
	s.log.InfoContext(ctx, "notifications - create - pushed", logging.Recipient(userID.String()), slog.Bool("delivered", delivered))
	return n, delivered, nil
}

// Broadcast persists a single broadcast row (nil recipient) that every
// user's listing includes, then pushes to all connected clients.
func (s *NotificationService) Broadcast(ctx context.Context, title, body string) (*domain.Notification, error) {
	ctx, span := notificationTracer.Start(ctx, "NotificationService.Broadcast")
	defer span.End()
	if title == "" {
		return nil, errors.New("notification title is required")
	}
	n := &domain.Notification{
		ID:        uuid.New(),
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "notifications - broadcast - persist failed", logging.Err(err))
		return nil, fmt.Errorf("persist notification: %w", err)
	}
	s.dispatcher.Broadcast(ctx, domain.EventBroadcastNotification, n)
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, requesterID, notifID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, notifID, requesterID); err != nil {
		s.log.ErrorContext(ctx, "notifications - mark read failed", slog.String("notification_id", notifID.String()), logging.Err(err))
		return err
	}
	return nil
}

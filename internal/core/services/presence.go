package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/pkg/logging"
)

var presenceTracer = otel.Tracer("presence-service")

// PresenceService keeps the Redis online-status view in sync with the
// websocket lifecycle. Presence is advisory: losing a heartbeat only means
// the user drops out of the online listing until the next refresh.
type PresenceService struct {
	log       *slog.Logger
	store     contracts.PresenceStore
	heartbeat time.Duration
	ttl       time.Duration
}

func NewPresenceService(
	log *slog.Logger,
	store contracts.PresenceStore,
	heartbeat time.Duration,
	ttl time.Duration,
) *PresenceService {
	return &PresenceService{
		log:       log,
		store:     store,
		heartbeat: heartbeat,
		ttl:       ttl,
	}
}

func (s *PresenceService) HandleConnect(ctx context.Context, userID string) error {
	if err := s.store.UpdateOnlineStatus(ctx, userID, s.ttl); err != nil {
		s.log.ErrorContext(ctx, "presence - handle connect - update failed", logging.User(userID), logging.Err(err))
		return err
	}
	return nil
}

func (s *PresenceService) HandleDisconnect(ctx context.Context, userID string) error {
	if err := s.store.MarkOffline(ctx, userID); err != nil {
		s.log.ErrorContext(ctx, "presence - handle disconnect - mark offline failed", logging.User(userID), logging.Err(err))
		return err
	}
	return nil
}

// RunHeartbeat refreshes the user's online status until ctx is cancelled.
// Runs on its own goroutine per connection.
func (s *PresenceService) RunHeartbeat(ctx context.Context, userID string) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("presence - heartbeat stopped", logging.User(userID))
			return
		case <-ticker.C:
			_, span := presenceTracer.Start(ctx, "Heartbeat.UpdateOnlineStatus")
			if err := s.store.UpdateOnlineStatus(ctx, userID, s.ttl); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "redis update failed")
				s.log.ErrorContext(ctx, "presence - heartbeat - update failed", logging.User(userID), logging.Err(err))
			}
			span.End()
		}
	}
}

func (s *PresenceService) Online(ctx context.Context) ([]string, error) {
	users, err := s.store.ListOnline(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "presence - list online failed", logging.Err(err))
		return nil, err
	}
	return users, nil
}

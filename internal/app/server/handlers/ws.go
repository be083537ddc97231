package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/server/ws"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/pkg/middleware"
)

type WSHandler struct {
	hub      contracts.Registry
	presence *services.PresenceService
}

func NewWSHandler(hub contracts.Registry, presence *services.PresenceService) *WSHandler {
	return &WSHandler{
		hub:      hub,
		presence: presence,
	}
}

func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	span := trace.SpanFromContext(r.Context())
	// Identity comes from the validated token, never from the client.
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		log.ErrorContext(r.Context(), "ws handler - unauthorised missing user_id")
		http.Error(w, "Unauthorized: User ID missing", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	// Stops the heartbeat goroutine even when the peer vanishes without a
	// close frame.
	defer cancel()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  32,
		WriteBufferSize: 32,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetCloseHandler(func(code int, text string) error {
		log.Info("ws handler - ws closed", "user_id", userID)
		cancel()
		return nil
	})
	socket := ws.NewWebSocket(ctx, conn)

	client := ws.NewClient(ctx, socket, userID)
	s.hub.Register(client)
	defer s.teardown(sessionCtx, log, client)
	if err := s.presence.HandleConnect(ctx, userID); err != nil {
		log.WarnContext(ctx, "ws handler - presence connect failed", "user_id", userID, "err", err)
	}
	go s.presence.RunHeartbeat(ctx, userID)

	// Connection-lifecycle acknowledgement
	if frame, err := domain.NewEnvelope(domain.EventConnected, domain.ConnectedPayload{UserID: userID}); err == nil {
		_ = client.Send(ctx, frame)
	}
	log.InfoContext(ctx, "ws handler - connection established", "user_id", userID)

	socket.ReadLoop(func(data []byte) {
		s.handleInbound(ctx, log, client, data)
	})
}

// teardown unregisters the connection and marks the user offline. When a
// newer connection already replaced this one the unregister is a stale no-op,
// and presence must stay online for the surviving connection.
func (s *WSHandler) teardown(ctx context.Context, log *slog.Logger, client contracts.Client) {
	s.hub.Unregister(client)
	if s.hub.IsConnected(client.UserID()) {
		return
	}
	if err := s.presence.HandleDisconnect(ctx, client.UserID()); err != nil {
		log.WarnContext(ctx, "ws handler - presence disconnect failed", "user_id", client.UserID(), "err", err)
	}
}

// handleInbound processes join/leave frames. Malformed frames get an error
// envelope back; the connection stays up.
func (s *WSHandler) handleInbound(ctx context.Context, log *slog.Logger, client contracts.Client, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendError(ctx, client, "bad_frame", "frame is not a valid envelope")
		return
	}
	switch env.Event {
	case domain.EventJoinConversation, domain.EventLeaveConversation:
		var channelID string
		if err := json.Unmarshal(env.Data, &channelID); err != nil || channelID == "" {
			s.sendError(ctx, client, "bad_channel", "missing channel id")
			return
		}
		if err := uuid.Validate(channelID); err != nil {
			s.sendError(ctx, client, "bad_channel", "invalid channel id")
			return
		}
		if env.Event == domain.EventJoinConversation {
			s.hub.Join(channelID, client)
			log.InfoContext(ctx, "ws handler - joined channel", "user_id", client.UserID(), "channel_id", channelID)
		} else {
			s.hub.Leave(channelID, client)
			log.InfoContext(ctx, "ws handler - left channel", "user_id", client.UserID(), "channel_id", channelID)
		}
	default:
		s.sendError(ctx, client, "unknown_event", "unsupported event: "+env.Event)
	}
}

func (s *WSHandler) sendError(ctx context.Context, client contracts.Client, code, msg string) {
	frame, err := domain.NewEnvelope(domain.EventError, domain.ErrorPayload{Code: code, Message: msg})
	if err != nil {
		return
	}
	_ = client.Send(ctx, frame)
}

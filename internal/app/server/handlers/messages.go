package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/pkg/middleware"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	requesterID, ok := requester(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		ParticipantIDs []uuid.UUID `json:"participant_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	conv, err := h.messages.CreateConversation(r.Context(), requesterID, req.ParticipantIDs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidConversationID) {
			http.Error(w, "at least one other participant required", http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "message handler - create conversation failed", "err", err)
		http.Error(w, "create conversation failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"conversation_id": conv.ID,
		"participants":    conv.Participants,
		"created_at":      conv.CreatedAt,
	})
}

func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	requesterID, ok := requester(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	convs, err := h.messages.ListConversations(r.Context(), requesterID)
	if err != nil {
		log.ErrorContext(r.Context(), "message handler - list conversations failed", "err", err)
		http.Error(w, "list conversations failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(convs)
}

// Send persists the message first; live push is best-effort and cannot fail
// the request.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	requesterID, ok := requester(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.messages.Send(r.Context(), requesterID, convID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyBody):
			http.Error(w, "message body required", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotParticipant):
			http.Error(w, "not a participant", http.StatusForbidden)
		case errors.Is(err, domain.ErrConversationNotFound):
			http.Error(w, "conversation not found", http.StatusNotFound)
		default:
			log.ErrorContext(r.Context(), "message handler - send failed", "conv_id", convID.String(), "err", err)
			http.Error(w, "send failed", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	requesterID, ok := requester(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}
	msgs, err := h.messages.List(r.Context(), requesterID, convID)
	if err != nil {
		if errors.Is(err, domain.ErrNotParticipant) {
			http.Error(w, "not a participant", http.StatusForbidden)
			return
		}
		log.ErrorContext(r.Context(), "message handler - list failed", "conv_id", convID.String(), "err", err)
		http.Error(w, "list messages failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(msgs)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := requester(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	if err := h.messages.MarkRead(r.Context(), requesterID, msgID); err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		http.Error(w, "mark read failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestLogger returns the logger injected by the logging middleware,
// falling back to the default logger for routes mounted without it.
func requestLogger(r *http.Request) *slog.Logger {
	if log, ok := r.Context().Value(middleware.LoggerKey).(*slog.Logger); ok && log != nil {
		return log
	}
	return slog.Default()
}

// requester extracts the authenticated user id injected by the auth
// middleware.
func requester(r *http.Request) (uuid.UUID, bool) {
	raw, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(n *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: n}
}

// Create answers 201 whenever the row is durable; the delivered flag only
// reports whether a live push happened.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req struct {
		UserID uuid.UUID `json:"user_id"`
		Title  string    `json:"title"`
		Body   string    `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	n, delivered, err := h.notifications.Create(r.Context(), req.UserID, req.Title, req.Body)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUserID) {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "notification handler - create failed", "err", err)
		http.Error(w, "create notification failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notification": n,
		"delivered":    delivered,
	})
}

func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	n, err := h.notifications.Broadcast(r.Context(), req.Title, req.Body)
	if err != nil {
		log.ErrorContext(r.Context(), "notification handler - broadcast failed", "err", err)
		http.Error(w, "broadcast failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(n)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	requesterID, ok := requester(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	notifs, err := h.notifications.List(r.Context(), requesterID)
	if err != nil {
		log.ErrorContext(r.Context(), "notification handler - list failed", "err", err)
		http.Error(w, "list notifications failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(notifs)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := requester(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	notifID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), requesterID, notifID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		http.Error(w, "mark read failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

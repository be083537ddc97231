package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
)

type UserHandler struct {
	presence *services.PresenceService
}

func NewUserHandler(presence *services.PresenceService) *UserHandler {
	return &UserHandler{presence: presence}
}

// Online lists users with a live heartbeat, across all relay instances.
func (h *UserHandler) Online(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	users, err := h.presence.Online(r.Context())
	if err != nil {
		log.ErrorContext(r.Context(), "user handler - online listing failed", "err", err)
		http.Error(w, "online listing failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"online": users,
	})
}

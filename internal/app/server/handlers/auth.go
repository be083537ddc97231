package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
)

type AuthHandler struct {
	userSvc  *services.UserService
	tokenSvc *services.TokenService
}

func NewAuthHandler(u *services.UserService, t *services.TokenService) *AuthHandler {
	return &AuthHandler{userSvc: u, tokenSvc: t}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		log.ErrorContext(r.Context(), "auth handler - login failed", "email", req.Email, "err", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	token, err := h.tokenSvc.GenerateToken(user.ID.String(), user.Role)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - generate token failed", "email", req.Email)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":   token,
		"user_id": user.ID,
		"role":    user.Role,
	})
	log.InfoContext(r.Context(), "auth handler - login success", "user_id", user.ID.String())
}

// CreateUser is the admin-only account provisioning endpoint.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req struct {
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	switch req.Role {
	case domain.RoleCustomer, domain.RoleCompany, domain.RoleAdmin:
	default:
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.Register(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - create user failed", "email", req.Email, "err", err)
		http.Error(w, "create user failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	})
}

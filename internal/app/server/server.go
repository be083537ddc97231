package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/server/handlers"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/pkg/middleware"
)

type Server struct {
	mux          *http.ServeMux
	log          *slog.Logger
	name         string
	addr         string
	authHandler  *handlers.AuthHandler
	wsHandler    *handlers.WSHandler
	msgHandler   *handlers.MessageHandler
	notifHandler *handlers.NotificationHandler
	userHandler  *handlers.UserHandler
	tokenSvc     *services.TokenService
}

func NewServer(
	log *slog.Logger,
	name string,
	addr string,
	userSvc *services.UserService,
	tokenSvc *services.TokenService,
	msgSvc *services.MessageService,
	notifSvc *services.NotificationService,
	presenceSvc *services.PresenceService,
	hub contracts.Registry,
) *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		log:          log,
		name:         name,
		addr:         addr,
		authHandler:  handlers.NewAuthHandler(userSvc, tokenSvc),
		wsHandler:    handlers.NewWSHandler(hub, presenceSvc),
		msgHandler:   handlers.NewMessageHandler(msgSvc),
		notifHandler: handlers.NewNotificationHandler(notifSvc),
		userHandler:  handlers.NewUserHandler(presenceSvc),
		tokenSvc:     tokenSvc,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleCompany)
	admin := middleware.RequireRole(domain.RoleAdmin)

	// Public
	s.mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	// Realtime relay: identity for the handshake comes from the validated
	// token the middleware puts in context.
	s.mux.Handle("GET /ws", auth(http.HandlerFunc(s.wsHandler.Handler)))

	// Notifications: persisted first, pushed best-effort.
	s.mux.Handle("POST /api/notifications", auth(staff(http.HandlerFunc(s.notifHandler.Create))))
	s.mux.Handle("POST /api/notifications/broadcast", auth(admin(http.HandlerFunc(s.notifHandler.Broadcast))))
	s.mux.Handle("GET /api/notifications", auth(http.HandlerFunc(s.notifHandler.List)))
	s.mux.Handle("PATCH /api/notifications/{id}/read", auth(http.HandlerFunc(s.notifHandler.MarkRead)))

	// Conversations and messages
	s.mux.Handle("POST /api/conversations", auth(http.HandlerFunc(s.msgHandler.CreateConversation)))
	s.mux.Handle("GET /api/conversations", auth(http.HandlerFunc(s.msgHandler.ListConversations)))
	s.mux.Handle("POST /api/conversations/{id}/messages", auth(http.HandlerFunc(s.msgHandler.Send)))
	s.mux.Handle("GET /api/conversations/{id}/messages", auth(http.HandlerFunc(s.msgHandler.ListMessages)))
	s.mux.Handle("PATCH /api/messages/{id}/read", auth(http.HandlerFunc(s.msgHandler.MarkRead)))

	// Accounts and presence
	s.mux.Handle("POST /api/users", auth(admin(http.HandlerFunc(s.authHandler.CreateUser))))
	s.mux.Handle("GET /api/users/online", auth(http.HandlerFunc(s.userHandler.Online)))
}

func (s *Server) Start() error {
	handler := middleware.TracerMiddleware(s.name)(middleware.RequestLogger(s.log)(s.mux))
	server := &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.log.Info("server starting", "addr", s.addr)
	return server.ListenAndServe()
}

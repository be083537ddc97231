package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/registry"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/server"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/worker"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/config"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/platform/logger"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/platform/telemetry"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/plugins/postgres"
	redisPlugin "github.com/electricautomaticchile/electricautomaticchile-sub006/internal/plugins/redis"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "DSN", cfg.Postgres.DSN)
		return
	}
	log.Info("postgres connected")
	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL)
		return
	}
	log.Info("redis connected")

	// Adapters
	userRepo := postgres.NewUserRepository(pdb)
	convRepo := postgres.NewConversationRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	notifRepo := postgres.NewNotificationRepo(pdb)
	presStore := redisPlugin.NewRedisPresenceStore(rdb, cfg.Relay.PresenceTTL)

	var bus contracts.EventBus
	if cfg.Relay.BackplaneEnabled {
		bus = redisPlugin.NewRedisEventBus(rdb)
	}

	// Core services
	hub := registry.NewRegistry()
	dispatcher := services.NewDispatchService(log, hub, bus, cfg.Relay.InstanceID)
	userSvc := services.NewUserService(log, userRepo)
	tokenSvc := services.NewTokenService(cfg.SecretToken)
	presenceSvc := services.NewPresenceService(log, presStore, cfg.Relay.HeartbeatInterval, cfg.Relay.PresenceTTL)
	msgSvc := services.NewMessageService(log, msgRepo, convRepo, dispatcher)
	notifSvc := services.NewNotificationService(log, notifRepo, dispatcher)

	if bus != nil {
		wrkr := worker.NewRelayWorker(log, bus, dispatcher, cfg.Relay.InstanceID)
		if err := wrkr.Run(ctx); err != nil {
			log.Error("relay worker start failed", "err", err)
			return
		}
	}

	// Server
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, userSvc, tokenSvc, msgSvc, notifSvc, presenceSvc, hub)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "err", err)
	}
}

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/cache"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/config"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/database"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/handlers"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/jobs"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/log"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/repository"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/security"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/server"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/service"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/session"
)

const tokenIssuer = "wolves-pet-store"

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	identities := repository.NewIdentityRepository(dbPool)
	sessions := repository.NewSessionRepository(redisClient)
	binder := session.NewBinder(sessions, cfg.Security.Session.IdleTTL, cfg.Security.Session.AbsoluteTTL)

	argon := cfg.Security.Argon2
	hasher := security.NewPasswordHasher(security.Argon2Params{
		Time:    argon.Time,
		Memory:  argon.Memory,
		Threads: argon.Threads,
		KeyLen:  argon.KeyLen,
		SaltLen: argon.SaltLen,
	})
	policy := security.NewPasswordPolicy(cfg.Security.Password.MinLength, cfg.Security.Password.SpecialChars)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Dependencies{
		Auth:     service.NewAuthService(identities, hasher, policy, binder, logger),
		Admin:    service.NewAdminService(identities, sessions, logger),
		Tokens:   security.NewSessionTokens(cfg.Security.Session.Secret, tokenIssuer),
		Sessions: binder,
		DB:       dbPool,
		Cache:    redisClient,
	})
	httpServer, err := server.NewHTTPServer(cfg, logger, handlerSet)
	if err != nil {
		logger.Fatal().Err(err).Msg("http server setup failed")
	}

	scheduler := jobs.NewScheduler(cfg.Jobs.SessionSweepSpec, sessions, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}

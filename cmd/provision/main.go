// Command provision grants or revokes the admin flag on an existing identity.
// It is the bootstrap path for the first administrator.
//
//	provision --email admin@example.com --admin=true [--revoke-sessions]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/cache"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/config"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/database"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/log"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/repository"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/service"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always happens.
func run(args []string) int {
	flags := pflag.NewFlagSet("provision", pflag.ContinueOnError)
	email := flags.String("email", "", "email of the identity to update")
	isAdmin := flags.Bool("admin", true, "admin flag value to set")
	revoke := flags.Bool("revoke-sessions", false, "end the identity's live sessions so the change applies immediately")
	flags.String("postgres.dsn", "", "override postgres dsn")
	flags.String("redis.addr", "", "override redis address")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitRejected
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	logger := log.New(cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect postgres")
		return exitFailure
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect redis")
		return exitFailure
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}()

	admin := service.NewAdminService(
		repository.NewIdentityRepository(dbPool),
		repository.NewSessionRepository(redisClient),
		logger,
	)

	user, err := admin.SetAdminFlagByEmail(ctx, *email, *isAdmin, *revoke)
	code := exitCode(err)
	switch code {
	case exitOK:
		logger.Info().
			Str("user_id", user.ID).
			Str("email", user.Email).
			Bool("is_admin", user.IsAdmin).
			Msg("admin flag updated")
	case exitRejected:
		logger.Error().Err(err).Str("email", *email).Msg("provision rejected")
	default:
		logger.Error().Err(err).Msg("provision failed")
	}
	return code
}

// exitCode separates caller mistakes (2) from infrastructure failures (1).
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, service.ErrIdentityNotFound), errors.Is(err, service.ErrInvalidInput):
		return exitRejected
	default:
		return exitFailure
	}
}

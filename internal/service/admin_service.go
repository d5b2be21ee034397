package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/repository"
)

type SessionRevoker interface {
	RevokeByIdentity(ctx context.Context, identityID string) (int, error)
}

// AdminService is the privileged provisioning path for the admin flag.
//
// Sessions carry the admin flag as it was at login. Changing the flag does not
// touch live sessions unless RevokeSessions is set, in which case the identity
// must log in again to pick up the new value.
type AdminService struct {
	directory IdentityDirectory
	sessions  SessionRevoker
	log       zerolog.Logger
}

func NewAdminService(directory IdentityDirectory, sessions SessionRevoker, log zerolog.Logger) *AdminService {
	return &AdminService{
		directory: directory,
		sessions:  sessions,
		log:       log,
	}
}

type SetAdminFlagInput struct {
	IdentityID     string
	IsAdmin        bool
	RevokeSessions bool
	// ActorID is the administrator making the change, empty for the CLI.
	ActorID string
}

func (s *AdminService) SetAdminFlag(ctx context.Context, input SetAdminFlagInput) (models.Projection, error) {
	if _, err := uuid.Parse(input.IdentityID); err != nil {
		return models.Projection{}, fmt.Errorf("%w: user id is not a valid identifier", ErrInvalidInput)
	}

	identity, err := s.directory.SetAdminFlag(ctx, input.IdentityID, input.IsAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return models.Projection{}, ErrIdentityNotFound
		}
		return models.Projection{}, s.internal(err, "set admin flag")
	}

	revoked := 0
	if input.RevokeSessions {
		revoked, err = s.sessions.RevokeByIdentity(ctx, identity.ID)
		if err != nil {
			return models.Projection{}, s.internal(err, "revoke sessions")
		}
	}

	s.log.Info().
		Str("user_id", identity.ID).
		Str("actor_id", input.ActorID).
		Bool("is_admin", identity.IsAdmin).
		Int("sessions_revoked", revoked).
		Msg("admin flag changed")

	return identity.Projection(), nil
}

// SetAdminFlagByEmail resolves the identity by email first; used by the
// provisioning CLI.
func (s *AdminService) SetAdminFlagByEmail(ctx context.Context, email string, isAdmin bool, revokeSessions bool) (models.Projection, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.Projection{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	identity, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return models.Projection{}, ErrIdentityNotFound
		}
		return models.Projection{}, s.internal(err, "lookup identity by email")
	}

	return s.SetAdminFlag(ctx, SetAdminFlagInput{
		IdentityID:     identity.ID,
		IsAdmin:        isAdmin,
		RevokeSessions: revokeSessions,
	})
}

func (s *AdminService) internal(err error, op string) error {
	s.log.Error().Err(err).Str("op", op).Msg("admin operation failed")
	return ErrInternal
}

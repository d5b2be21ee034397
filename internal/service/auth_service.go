package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/repository"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/security"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/session"
)

const maxProfileFieldLen = 100

// timingPassword is hashed once and verified against when an email is unknown,
// so both login failure paths cost one argon2 derivation.
const timingPassword = "timing-equaliser-password!"

type IdentityDirectory interface {
	FindByEmail(ctx context.Context, email string) (models.Identity, error)
	Insert(ctx context.Context, in models.NewIdentity) (models.Identity, error)
	SetAdminFlag(ctx context.Context, id string, isAdmin bool) (models.Identity, error)
}

type CredentialHasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, encodedHash []byte) bool
}

type SessionBinder interface {
	Bind(ctx context.Context, s *models.Session, identity models.Identity) error
	Unbind(ctx context.Context, s *models.Session) error
}

type AuthService struct {
	directory IdentityDirectory
	hasher    CredentialHasher
	policy    security.PasswordPolicy
	binder    SessionBinder
	log       zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	directory IdentityDirectory,
	hasher CredentialHasher,
	policy security.PasswordPolicy,
	binder SessionBinder,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		directory: directory,
		hasher:    hasher,
		policy:    policy,
		binder:    binder,
		log:       log,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	FirstName   string
	LastName    string
}

func (s *AuthService) Register(ctx context.Context, sess *models.Session, input RegisterInput) (models.Projection, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validateRegistration(input); err != nil {
		return models.Projection{}, err
	}

	if _, err := s.directory.FindByEmail(ctx, input.Email); err == nil {
		return models.Projection{}, ErrEmailExists
	} else if !errors.Is(err, repository.ErrIdentityNotFound) {
		return models.Projection{}, s.internal(err, "lookup identity before register")
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.Projection{}, s.internal(err, "hash password")
	}

	identity, err := s.directory.Insert(ctx, models.NewIdentity{
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	})
	if err != nil {
		// The unique constraint decides concurrent registrations of one email.
		if errors.Is(err, repository.ErrDuplicateIdentity) {
			return models.Projection{}, ErrEmailExists
		}
		return models.Projection{}, s.internal(err, "insert identity")
	}

	if err := s.binder.Bind(ctx, sess, identity); err != nil {
		return models.Projection{}, s.internal(err, "bind session after register")
	}

	s.log.Info().Str("user_id", identity.ID).Msg("identity registered")
	return identity.Projection(), nil
}

func (s *AuthService) validateRegistration(input RegisterInput) error {
	if input.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !security.ValidateEmail(input.Email) {
		return fmt.Errorf("%w: email format is invalid", ErrInvalidInput)
	}
	if input.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	profile := []struct{ field, value string }{
		{"displayName", input.DisplayName},
		{"firstName", input.FirstName},
		{"lastName", input.LastName},
	}
	for _, p := range profile {
		if utf8.RuneCountInString(p.value) > maxProfileFieldLen {
			return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, p.field, maxProfileFieldLen)
		}
	}
	if !s.policy.Validate(input.Password) {
		return fmt.Errorf("%w: password must be at least %d characters and contain a special character",
			ErrWeakPassword, s.policy.MinLength)
	}
	return nil
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, sess *models.Session, input LoginInput) (models.Projection, error) {
	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Password == "" {
		return models.Projection{}, ErrMissingCredentials
	}

	identity, err := s.directory.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			s.hasher.Verify(input.Password, s.timingHash())
			return models.Projection{}, ErrInvalidCredentials
		}
		return models.Projection{}, s.internal(err, "lookup identity for login")
	}

	if !s.hasher.Verify(input.Password, identity.PasswordHash) {
		return models.Projection{}, ErrInvalidCredentials
	}

	if err := s.binder.Bind(ctx, sess, identity); err != nil {
		return models.Projection{}, s.internal(err, "bind session after login")
	}

	s.log.Info().Str("user_id", identity.ID).Msg("identity logged in")
	return identity.Projection(), nil
}

// Logout succeeds for anonymous sessions too.
func (s *AuthService) Logout(ctx context.Context, sess *models.Session) error {
	var userID string
	if projection, ok := session.CurrentIdentity(sess); ok {
		userID = projection.ID
	}

	if err := s.binder.Unbind(ctx, sess); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("session destroy failed")
		return ErrLogoutFailed
	}

	if userID != "" {
		s.log.Info().Str("user_id", userID).Msg("identity logged out")
	}
	return nil
}

func (s *AuthService) CurrentUser(sess *models.Session) (models.Projection, error) {
	projection, ok := session.CurrentIdentity(sess)
	if !ok {
		return models.Projection{}, ErrNotAuthenticated
	}
	return projection, nil
}

func (s *AuthService) timingHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(timingPassword)
		if err != nil {
			s.log.Warn().Err(err).Msg("timing hash unavailable")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) internal(err error, op string) error {
	s.log.Error().Err(err).Str("op", op).Msg("auth operation failed")
	return ErrInternal
}

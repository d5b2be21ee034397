// Package session binds server-side sessions to identity projections.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/ids"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/repository"
)

var (
	// ErrNoSession means the presented session does not exist or has expired.
	ErrNoSession = errors.New("no session")
	// ErrSessionDestroyFailed wraps store failures while unbinding.
	ErrSessionDestroyFailed = errors.New("session destroy failed")
)

type Store interface {
	Save(ctx context.Context, session models.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (models.Session, error)
	// Touch updates a record only if it still exists, returning
	// repository.ErrSessionNotFound otherwise.
	Touch(ctx context.Context, session models.Session, ttl time.Duration) error
	Delete(ctx context.Context, session models.Session) error
}

// Binder owns the session-to-projection binding. Sessions expire after IdleTTL
// without activity and never outlive AbsoluteTTL from bind time.
type Binder struct {
	store       Store
	idleTTL     time.Duration
	absoluteTTL time.Duration
	now         func() time.Time
}

func NewBinder(store Store, idleTTL time.Duration, absoluteTTL time.Duration) *Binder {
	return &Binder{
		store:       store,
		idleTTL:     idleTTL,
		absoluteTTL: absoluteTTL,
		now:         time.Now,
	}
}

// Bind replaces whatever s held with a fresh session bound to identity. The
// session id is always reissued so a pre-login id cannot be reused. s is only
// modified once the new record is stored.
func (b *Binder) Bind(ctx context.Context, s *models.Session, identity models.Identity) error {
	if s == nil {
		return errors.New("bind: nil session")
	}

	if s.ID != "" {
		if err := b.store.Delete(ctx, *s); err != nil {
			return fmt.Errorf("discard previous session: %w", err)
		}
	}

	now := b.now().UTC()
	projection := identity.Projection()
	next := models.Session{
		ID:         ids.New(),
		Identity:   &projection,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(b.absoluteTTL),
	}

	if err := b.store.Save(ctx, next, b.ttl(next, now)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	*s = next
	return nil
}

// Unbind destroys the session. An already anonymous session is a no-op.
func (b *Binder) Unbind(ctx context.Context, s *models.Session) error {
	if s == nil || s.ID == "" {
		if s != nil {
			*s = models.Session{}
		}
		return nil
	}

	if err := b.store.Delete(ctx, *s); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionDestroyFailed, err)
	}

	*s = models.Session{}
	return nil
}

// Resume loads the session presented by a client and slides its idle expiry.
func (b *Binder) Resume(ctx context.Context, id string) (*models.Session, error) {
	stored, err := b.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := b.now().UTC()
	if !now.Before(stored.ExpiresAt) {
		if err := b.store.Delete(ctx, stored); err != nil {
			return nil, fmt.Errorf("drop expired session: %w", err)
		}
		return nil, ErrNoSession
	}

	stored.LastSeenAt = now
	// A logout or revocation racing this request wins.
	if err := b.store.Touch(ctx, stored, b.ttl(stored, now)); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return &stored, nil
}

// CurrentIdentity reads the bound projection without touching the directory.
func CurrentIdentity(s *models.Session) (models.Projection, bool) {
	if !s.Bound() {
		return models.Projection{}, false
	}
	return *s.Identity, true
}

func (b *Binder) ttl(s models.Session, now time.Time) time.Duration {
	remaining := s.ExpiresAt.Sub(now)
	if remaining < b.idleTTL {
		return remaining
	}
	return b.idleTTL
}

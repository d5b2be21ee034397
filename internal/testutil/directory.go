// Package testutil holds in-memory collaborators for package tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/ids"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/repository"
)

// MemoryDirectory mirrors IdentityRepository, including the unique email
// constraint. The *Err fields inject failures.
type MemoryDirectory struct {
	mu      sync.Mutex
	byEmail map[string]models.Identity

	FindErr   error
	InsertErr error
	UpdateErr error

	// BeforeInsert runs inside Insert before the uniqueness check; tests use
	// it to simulate a concurrent registration winning the race.
	BeforeInsert func(in models.NewIdentity)
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{byEmail: map[string]models.Identity{}}
}

func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (models.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FindErr != nil {
		return models.Identity{}, d.FindErr
	}
	identity, ok := d.byEmail[email]
	if !ok {
		return models.Identity{}, repository.ErrIdentityNotFound
	}
	return identity, nil
}

func (d *MemoryDirectory) Insert(_ context.Context, in models.NewIdentity) (models.Identity, error) {
	if d.BeforeInsert != nil {
		d.BeforeInsert(in)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.InsertErr != nil {
		return models.Identity{}, d.InsertErr
	}
	if _, exists := d.byEmail[in.Email]; exists {
		return models.Identity{}, repository.ErrDuplicateIdentity
	}

	now := time.Now().UTC()
	identity := models.Identity{
		ID:           ids.NewIdentityID(),
		Email:        in.Email,
		PasswordHash: append([]byte(nil), in.PasswordHash...),
		DisplayName:  in.DisplayName,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.byEmail[in.Email] = identity
	return identity, nil
}

func (d *MemoryDirectory) SetAdminFlag(_ context.Context, id string, isAdmin bool) (models.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.UpdateErr != nil {
		return models.Identity{}, d.UpdateErr
	}
	for email, identity := range d.byEmail {
		if identity.ID == id {
			identity.IsAdmin = isAdmin
			identity.UpdatedAt = time.Now().UTC()
			d.byEmail[email] = identity
			return identity, nil
		}
	}
	return models.Identity{}, repository.ErrIdentityNotFound
}

// Put stores identity as-is, bypassing registration; used to seed admins.
func (d *MemoryDirectory) Put(identity models.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byEmail[identity.Email] = identity
}

func (d *MemoryDirectory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byEmail)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/ids"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
)

var (
	ErrIdentityNotFound  = errors.New("identity not found")
	ErrDuplicateIdentity = errors.New("identity already exists")
)

const (
	uniqueViolation  = "23505"
	emailUniqueIndex = "identities_email_key"
	identityColumns  = "id::text, email, password_hash, display_name, first_name, last_name, is_admin, created_at, updated_at"
)

// DBTX is the subset of *pgxpool.Pool the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type IdentityRepository struct {
	db DBTX
}

func NewIdentityRepository(db DBTX) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Insert creates an identity with the admin flag cleared. A concurrent insert
// of the same email loses on the unique constraint and gets ErrDuplicateIdentity.
func (r *IdentityRepository) Insert(ctx context.Context, in models.NewIdentity) (models.Identity, error) {
	const query = `
		INSERT INTO identities (
			id, email, password_hash, display_name, first_name, last_name, is_admin, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW()
		)
		RETURNING ` + identityColumns

	row := r.db.QueryRow(ctx, query,
		ids.NewIdentityID(),
		in.Email,
		in.PasswordHash,
		in.DisplayName,
		in.FirstName,
		in.LastName,
	)

	identity, err := scanIdentity(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == emailUniqueIndex {
			return models.Identity{}, ErrDuplicateIdentity
		}
		return models.Identity{}, fmt.Errorf("insert identity: %w", err)
	}
	return identity, nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (models.Identity, error) {
	const query = `SELECT ` + identityColumns + ` FROM identities WHERE email = $1`

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Identity{}, ErrIdentityNotFound
		}
		return models.Identity{}, fmt.Errorf("find identity by email: %w", err)
	}
	return identity, nil
}

// SetAdminFlag is the privileged path for granting or revoking the admin
// capability. It is never reached from self-service registration.
func (r *IdentityRepository) SetAdminFlag(ctx context.Context, id string, isAdmin bool) (models.Identity, error) {
	const query = `
		UPDATE identities SET is_admin = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + identityColumns

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, id, isAdmin))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Identity{}, ErrIdentityNotFound
		}
		return models.Identity{}, fmt.Errorf("set admin flag: %w", err)
	}
	return identity, nil
}

func scanIdentity(row pgx.Row) (models.Identity, error) {
	var identity models.Identity
	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.DisplayName,
		&identity.FirstName,
		&identity.LastName,
		&identity.IsAdmin,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	return identity, err
}

package models

import "time"

// Identity is a registered account. PasswordHash never leaves the service.
type Identity struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	FirstName    string
	LastName     string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewIdentity is what the directory needs to create an account. There is no
// admin field: self-registered identities are never administrators.
type NewIdentity struct {
	Email        string
	PasswordHash []byte
	DisplayName  string
	FirstName    string
	LastName     string
}

// Projection is the public-safe subset of an Identity, returned to clients and
// copied into bound sessions.
type Projection struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"isAdmin"`
	DisplayName string `json:"displayName,omitempty"`
}

func (i Identity) Projection() Projection {
	return Projection{
		ID:          i.ID,
		Email:       i.Email,
		IsAdmin:     i.IsAdmin,
		DisplayName: i.DisplayName,
	}
}

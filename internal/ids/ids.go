package ids

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// New returns a time-ordered opaque identifier used for session records.
func New() string {
	return ksuid.New().String()
}

// NewIdentityID returns a random 128-bit identifier in canonical UUID form.
func NewIdentityID() string {
	return uuid.NewString()
}

package models

import "time"

// Session is one client context. A nil Identity means the session is anonymous.
// Identity is a snapshot taken at bind time and is not refreshed from the
// directory afterwards.
type Session struct {
	ID         string      `json:"id"`
	Identity   *Projection `json:"identity,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	LastSeenAt time.Time   `json:"lastSeenAt"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

func (s *Session) Bound() bool {
	return s != nil && s.Identity != nil
}

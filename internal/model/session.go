package model

import "time"

// Session is the authenticated identity held for one client context.
type Session struct {
	Identity  Identity  `json:"identity"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (s *Session) Role() Role {
	if s == nil {
		return RoleGuest
	}
	return s.Identity.Role
}

// Expired reports whether the token backing the session is past its expiry.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

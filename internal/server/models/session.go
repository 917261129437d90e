package models

import "time"

// OwnerKind tells which principal table a session points to.
type OwnerKind string

const (
	OwnerProfessor OwnerKind = "professor"
	OwnerAdmin     OwnerKind = "admin"
)

// Session binds an opaque bearer token to exactly one principal.
type Session struct {
	Token     string
	OwnerKind OwnerKind
	OwnerID   int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

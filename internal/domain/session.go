package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleViewer }

// Session is a cookie-bound login. ID is the storage key and is not part of the stored record.
type Session struct {
	ID        string     `json:"-"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	ExpiresAt UnixMillis `json:"expiresAt"`
}

func (s *Session) Expired(now time.Time) bool { return s.ExpiresAt.Passed(now) }

func (s *Session) IsAdmin() bool { return s != nil && s.Role == RoleAdmin }

package domain

import "time"

type TokenType string

const (
	TokenViewer TokenType = "viewer"
	TokenAdmin  TokenType = "admin"
)

// Role is the session role granted when a token of this type is redeemed.
func (t TokenType) Role() Role {
	if t == TokenAdmin {
		return RoleAdmin
	}
	return RoleViewer
}

// MagicLinkToken is a single-use login grant.
type MagicLinkToken struct {
	Email     string     `json:"email"`
	Type      TokenType  `json:"type"`
	ExpiresAt UnixMillis `json:"expiresAt"`
}

func (t *MagicLinkToken) Expired(now time.Time) bool { return t.ExpiresAt.Passed(now) }

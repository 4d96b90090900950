package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionTTL is how long an issued session credential stays valid
const SessionTTL = 7 * 24 * time.Hour

// Session is the authenticated identity of one logged-in center. It is created
// by a successful login, resumed from its credential, and ended by logout or expiry.
type Session struct {
	CenterID   uuid.UUID `json:"center_id"`
	Email      string    `json:"email"`
	CenterName string    `json:"center_name"`
	TokenID    string    `json:"token_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionToken is the response to a successful login
type SessionToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Session   *Session  `json:"session"`
}

package sessions

import "time"

// Session is a server-side record of an issued token. The token itself is a
// JWT; only its SHA-256 hash is stored, so a database leak does not leak
// usable credentials.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

package session

import "time"

// Principal is the authenticated caller handed to every authenticated handler.
type Principal struct {
	UserID    int64
	Username  string
	SessionID string
}

// Session represents a persisted sign-in.
type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

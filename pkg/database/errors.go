package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// UniqueViolation reports whether err is a unique constraint violation and, if
// so, the constraint or column text the driver named.
//
// Postgres reports the constraint name (e.g. "uq_users_email"); SQLite reports
// the columns ("UNIQUE constraint failed: users.email").
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" {
			return pqErr.Constraint, true
		}
		return "", false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return "", false
		}
		msg := liteErr.Error()
		if i := strings.Index(msg, "UNIQUE constraint failed:"); i >= 0 {
			detail := msg[i+len("UNIQUE constraint failed:"):]
			// the driver appends the result code, e.g. " (2067)"
			if j := strings.LastIndex(detail, " ("); j >= 0 {
				detail = detail[:j]
			}
			return strings.TrimSpace(detail), true
		}
	}
	return "", false
}

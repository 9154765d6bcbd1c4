package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/database"
)

type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// EnsureTable creates the sessions table (idempotent). Rows go away with
// their user.
func (r *SessionRepo) EnsureTable(ctx context.Context) error {
	ts := database.TimestampType(r.db.DriverName())
	return database.ExecAll(ctx, r.db,
		`CREATE TABLE IF NOT EXISTS sessions (
  id VARCHAR(32) PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  expires_at `+ts+` NOT NULL,
  created_at `+ts+` NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id)`,
	)
}

func (r *SessionRepo) Save(ctx context.Context, id string, userID int64, expiresAt, createdAt time.Time) error {
	q := r.db.Rebind(`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, id, userID, expiresAt, createdAt)
	return err
}

// Get returns the session's user and expiry or sql.ErrNoRows.
func (r *SessionRepo) Get(ctx context.Context, id string) (int64, time.Time, error) {
	var row struct {
		UserID    int64     `db:"user_id"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	q := r.db.Rebind(`SELECT user_id, expires_at FROM sessions WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return 0, time.Time{}, err
	}
	return row.UserID, row.ExpiresAt, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id = ?`), id)
	return err
}

// DeleteExpired removes sessions that expired before now and reports how many.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE expires_at < ?`), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/database"
)

var (
	// ErrUsernameTaken and ErrEmailTaken are returned by Create when the
	// corresponding unique constraint rejects the row.
	ErrUsernameTaken = errors.New("username taken")
	ErrEmailTaken    = errors.New("email taken")
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	ts := database.TimestampType(r.db.DriverName())
	return database.ExecAll(ctx, r.db,
		`CREATE TABLE IF NOT EXISTS users (
  id BIGINT PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  password_algo TEXT NOT NULL,
  metadata TEXT NOT NULL DEFAULT '{}',
  created_at `+ts+` NOT NULL,
  updated_at `+ts+` NOT NULL,
  CONSTRAINT uq_users_username UNIQUE (username),
  CONSTRAINT uq_users_email UNIQUE (email)
)`,
	)
}

// Create inserts a new user row. Unique violations are reported as
// ErrUsernameTaken / ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, password_hash, password_algo, metadata, created_at, updated_at)
		VALUES (:id, :username, :email, :password_hash, :password_algo, :metadata, :created_at, :updated_at)`
	meta := "{}"
	if len(u.MetadataRaw) > 0 {
		meta = string(u.MetadataRaw)
	}
	params := map[string]any{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"password_algo": u.PasswordAlgo,
		"metadata":      meta,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, q, params); err != nil {
		if detail, ok := database.UniqueViolation(err); ok {
			switch {
			case strings.Contains(detail, "username"):
				return ErrUsernameTaken
			case strings.Contains(detail, "email"):
				return ErrEmailTaken
			}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const selectUser = `SELECT id, username, email, password_hash, password_algo, metadata, created_at, updated_at FROM users`

// GetByEmail returns a user matched by email or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = ?`, email)
}

// UsernameExists reports whether an account already uses username.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username)
}

// EmailExists reports whether an account already uses email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email)
}

// Delete removes a user; their issues and sessions go with it.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	return err
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(q), arg); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *UserRepo) exists(ctx context.Context, q string, arg any) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}

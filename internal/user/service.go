package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var (
	ErrMissingField       = fmt.Errorf("%w: all fields are required", apperr.ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password must be at most %d bytes", apperr.ErrValidation, MaxPasswordBytes)
	ErrDuplicateUsername  = fmt.Errorf("%w: username already taken", apperr.ErrConflict)
	ErrDuplicateEmail     = fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrAuth)
)

// UserService orchestrates account creation and password authentication.
type UserService struct {
	repo   *userrepo.UserRepo
	hasher PasswordHasher
	logger *zap.SugaredLogger
}

func NewUserService(r *userrepo.UserRepo, hasher PasswordHasher, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, hasher: hasher, logger: logger}
}

// CreateAccount validates and stores a new account. Username is checked before
// email, matching the order users see the fields; the unique constraints still
// decide when two sign-ups race.
func (s *UserService) CreateAccount(ctx context.Context, username, email, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingField
	}
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrDuplicateUsername
	}
	taken, err = s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &entity.User{
		ID:           utilities.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PasswordAlgo: algo,
		MetadataRaw:  []byte("{}"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrUsernameTaken):
			return nil, ErrDuplicateUsername
		case errors.Is(err, userrepo.ErrEmailTaken):
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	s.logger.Infow("account created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authenticate resolves the account by email and verifies the password.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		} // avoid user enumeration
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		s.logger.Debugw("password mismatch", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByEmail returns the account registered with email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no account with email %s", apperr.ErrNotFound, email)
		}
		return nil, err
	}
	return u, nil
}

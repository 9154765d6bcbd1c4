package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/utilities"
)

// ErrInvalidSession covers every reason a presented token is not accepted:
// bad signature, expiry, or a session that was signed out.
var ErrInvalidSession = fmt.Errorf("%w: invalid session", apperr.ErrAuth)

type Config struct {
	Secret       []byte
	TTL          time.Duration
	Issuer       string
	CookieName   string
	CookieSecure bool
}

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Service issues and verifies session tokens. A token is an HS256 JWT whose
// jti names a row in the sessions table; deleting the row revokes it.
type Service struct {
	cfg  Config
	repo *repo.SessionRepo
	now  func() time.Time
}

func NewService(db *sqlx.DB, cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "issue-tracker"
	}
	return &Service{cfg: cfg, repo: repo.NewSessionRepo(db), now: time.Now}, nil
}

// Issue persists a new session for the user and returns its signed token.
func (s *Service) Issue(ctx context.Context, userID int64, username string) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(s.cfg.TTL)
	sid := utilities.NewKSUID()

	if err := s.repo.Save(ctx, sid, userID, exp, now); err != nil {
		return "", time.Time{}, fmt.Errorf("save session: %w", err)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Issuer:    s.cfg.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the token and that its session is still live.
func (s *Service) Verify(ctx context.Context, token string) (Principal, error) {
	c, err := s.parse(token)
	if err != nil {
		return Principal{}, ErrInvalidSession
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Principal{}, ErrInvalidSession
	}
	owner, expiresAt, err := s.repo.Get(ctx, c.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Principal{}, ErrInvalidSession
		}
		return Principal{}, fmt.Errorf("load session: %w", err)
	}
	if owner != userID || !expiresAt.After(s.now()) {
		return Principal{}, ErrInvalidSession
	}
	return Principal{UserID: userID, Username: c.Name, SessionID: c.ID}, nil
}

// Revoke deletes the session behind token. Tokens that do not parse are
// ignored; there is nothing to revoke.
func (s *Service) Revoke(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.repo.Delete(ctx, c.ID)
}

// PruneExpired drops expired session rows.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

func (s *Service) parse(token string) (*claims, error) {
	c := &claims{}
	tok, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid || c.ID == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

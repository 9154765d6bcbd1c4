package session

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/apperr"
)

// AuthedHandlerFunc is an http.HandlerFunc that also receives the caller.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, p Principal)

// SetCookie stores token in the session cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the raw session token of the request, if any.
func (s *Service) Token(r *http.Request) string {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Require wraps next so it only runs for signed-in callers. Everyone else is
// redirected to loginPath.
func (s *Service) Require(logger *zap.SugaredLogger, loginPath string) func(AuthedHandlerFunc) http.HandlerFunc {
	return func(next AuthedHandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := s.Token(r)
			if token == "" {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			p, err := s.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, apperr.ErrAuth) {
					logger.Errorw("verify session", "err", err)
				}
				s.ClearCookie(w)
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next(w, r, p)
		}
	}
}

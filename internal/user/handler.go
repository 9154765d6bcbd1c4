package user

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/web"
)

// Handler exposes the sign-up, sign-in and sign-out pages.
type Handler struct {
	svc      *UserService
	sessions *session.Service
	view     *web.Renderer
	logger   *zap.SugaredLogger
}

func NewHandler(svc *UserService, sessions *session.Service, view *web.Renderer, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, sessions: sessions, view: view, logger: logger}
}

func (h *Handler) SignInForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "signin", web.Page{Title: "Sign in", Flash: web.PopFlash(w, r)})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.Fail(w, r, "/", "Invalid request")
		return
	}
	u, err := h.svc.Authenticate(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.Debugw("sign-in rejected", "remote", r.RemoteAddr)
			web.Fail(w, r, "/", "Invalid email or password")
			return
		}
		h.serverError(w, "sign-in", err)
		return
	}
	token, exp, err := h.sessions.Issue(r.Context(), u.ID, u.Username)
	if err != nil {
		h.serverError(w, "issue session", err)
		return
	}
	h.sessions.SetCookie(w, token, exp)
	h.logger.Infow("signed in", "user_id", u.ID)
	web.Success(w, r, "/dashboard", fmt.Sprintf("Welcome back, %s!", u.Username))
}

func (h *Handler) SignUpForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "signup", web.Page{Title: "Sign up", Flash: web.PopFlash(w, r)})
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.Fail(w, r, "/signup", "Invalid request")
		return
	}
	_, err := h.svc.CreateAccount(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		if apperr.Recoverable(err) {
			web.Fail(w, r, "/signup", signupNotice(err))
			return
		}
		h.serverError(w, "sign-up", err)
		return
	}
	web.Success(w, r, "/", "Account created successfully! Please sign in.")
}

func signupNotice(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "All fields are required."
	case errors.Is(err, ErrPasswordTooLong):
		return fmt.Sprintf("Password must be at most %d bytes.", MaxPasswordBytes)
	case errors.Is(err, ErrDuplicateUsername):
		return "Username already taken"
	case errors.Is(err, ErrDuplicateEmail):
		return "Email already registered"
	}
	return apperr.Message(err)
}

// SignOut revokes the caller's session, whether or not it is still valid.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if token := h.sessions.Token(r); token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			h.logger.Warnw("revoke session", "err", err)
		}
	}
	h.sessions.ClearCookie(w)
	web.Success(w, r, "/", "Signed out.")
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Errorw(op+" failed", "err", err)
	h.view.Render(w, http.StatusInternalServerError, "error", web.Page{Title: "Error"})
}

package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue"
	issuerepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/web"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "same-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			// pages carry no scripts; forms post back to self only
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self'; form-action 'self';")
			}
			if r.TLS != nil {
				// 30 days by default
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Options carries the knobs RegisterRoutes needs beyond the database.
type Options struct {
	Session        session.Config
	BcryptCost     int
	RestrictDetail bool
}

// RegisterRoutes builds the services and mounts every page on an
// http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, opts Options) (http.Handler, error) {
	view, err := web.NewRenderer(logger)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewService(db, opts.Session)
	if err != nil {
		return nil, err
	}
	userSvc := user.NewUserService(userrepo.NewUserRepo(db), user.BcryptHasher{Cost: opts.BcryptCost}, logger)
	issueSvc := issue.NewService(issuerepo.NewIssueRepo(db), logger)

	userHandler := user.NewHandler(userSvc, sessions, view, logger)
	issueHandler := issue.NewHandler(issueSvc, view, logger, opts.RestrictDetail)
	auth := sessions.Require(logger, "/")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public
	mux.HandleFunc("GET /{$}", userHandler.SignInForm)
	mux.HandleFunc("POST /{$}", userHandler.SignIn)
	mux.HandleFunc("GET /signup", userHandler.SignUpForm)
	mux.HandleFunc("POST /signup", userHandler.SignUp)
	mux.HandleFunc("POST /signout", userHandler.SignOut)

	// authenticated
	mux.HandleFunc("GET /dashboard", auth(issueHandler.Dashboard))
	mux.HandleFunc("GET /add-issue", auth(issueHandler.AddIssueForm))
	mux.HandleFunc("POST /add-issue", auth(issueHandler.AddIssue))
	mux.HandleFunc("GET /issue-detail/{id}", auth(issueHandler.Detail))
	mux.HandleFunc("POST /issue-detail/{id}", auth(issueHandler.UpdateStatus))

	// wrap with security headers middleware then logging middleware
	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)), nil
}

package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/router"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session"
	sessionrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session/repo"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveRun(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	lg, err := newLogger()
	if err != nil {
		return err
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting issue-tracker", "addr", cfg.HTTP.Addr, "db_driver", cfg.Database.Driver)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx)
	if err != nil {
		sugar.Errorw("db init failed", "err", err)
		return err
	}
	defer db.Close()

	if n, err := sessionrepo.NewSessionRepo(db).DeleteExpired(ctx, time.Now().UTC()); err != nil {
		sugar.Warnw("prune expired sessions", "err", err)
	} else if n > 0 {
		sugar.Infow("pruned expired sessions", "count", n)
	}

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		sugar.Warn("SESSION_SECRET not set; using a random secret, sessions end on restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
	}

	handler, err := router.RegisterRoutes(sugar, db, router.Options{
		Session: session.Config{
			Secret:       secret,
			TTL:          cfg.Session.TTL,
			CookieSecure: cfg.Session.CookieSecure,
		},
		BcryptCost:     cfg.Auth.BcryptCost,
		RestrictDetail: cfg.Issues.RestrictDetailToReporter,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// run server in background
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	sugar.Info("service is running; press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			sugar.Errorw("http server failed", "err", err)
			return err
		}
	}

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
	return nil
}

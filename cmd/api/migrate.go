package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/output"
	sessionrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session/repo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and drop expired sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ui := output.New()
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		ui.Success("schema up to date (%s)", cfg.Database.Driver)

		n, err := sessionrepo.NewSessionRepo(db).DeleteExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		ui.Info("removed %d expired sessions", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

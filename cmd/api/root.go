package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/config"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/schema"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/database"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/utilities"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "issue-tracker",
	Short: "Issue tracker web service",
	Long: `issue-tracker serves a small issue tracking site: accounts, a per-user
dashboard with filters, issue creation and status updates.

Running it without a subcommand is the same as 'issue-tracker serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(config.New(), cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		return utilities.SetSnowflakeNode(cfg.Snowflake.Node)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment variables take precedence)")
}

// newLogger builds the process logger from cfg.
func newLogger() (*zap.Logger, error) {
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return lg, nil
}

// openDB connects and makes sure the schema exists.
func openDB(ctx context.Context) (*sqlx.DB, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := schema.Ensure(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

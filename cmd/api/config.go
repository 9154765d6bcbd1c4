package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/config"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration as YAML (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(output.New(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func printConfig(ui *output.UI, c config.Config) error {
	if c.Session.Secret == "" {
		ui.Warning("session.secret is empty; serve will use a random secret and sessions end on restart")
	}
	enc := yaml.NewEncoder(ui.Out)
	enc.SetIndent(2)
	if err := enc.Encode(c.Redacted()); err != nil {
		return err
	}
	return enc.Close()
}

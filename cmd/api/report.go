package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue"
	issuerepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/output"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/repo"
)

var (
	reportEmail  string
	reportFilter issue.Filter
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a user's dashboard in the terminal",
	Example: `  issue-tracker report --email alice@example.com
  issue-tracker report --email alice@example.com --status open --q login`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		users := user.NewUserService(userrepo.NewUserRepo(db), nil, nil)
		u, err := users.GetByEmail(ctx, reportEmail)
		if err != nil {
			return err
		}
		sum, err := issue.NewService(issuerepo.NewIssueRepo(db), nil).Dashboard(ctx, u.ID, reportFilter)
		if err != nil {
			return err
		}
		return printSummary(output.New(), u.Username, sum)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportEmail, "email", "", "Email of the reporter (required)")
	reportCmd.Flags().StringVar(&reportFilter.Status, "status", issue.FilterAll, "Filter by status")
	reportCmd.Flags().StringVar(&reportFilter.Priority, "priority", issue.FilterAll, "Filter by priority")
	reportCmd.Flags().StringVar(&reportFilter.Type, "type", issue.FilterAll, "Filter by type")
	reportCmd.Flags().StringVar(&reportFilter.Query, "q", "", "Title substring")
	_ = reportCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(reportCmd)
}

func printSummary(ui *output.UI, username string, sum *issue.Summary) error {
	ui.Info("%s: %d total, %d open, %d in progress, %d resolved, %d closed",
		username, sum.Total, sum.Open, sum.InProgress, sum.Resolved, sum.Closed)
	if len(sum.Issues) == 0 {
		ui.Info("no issues match")
		return nil
	}
	table := ui.Table([]string{"ID", "Title", "Type", "Priority", "Status", "Labels", "Created"})
	for _, iss := range sum.Issues {
		if err := table.Append([]string{
			strconv.FormatInt(iss.ID, 10),
			iss.Title,
			string(iss.Type),
			output.PriorityColor(string(iss.Priority)),
			output.StatusColor(string(iss.Status)),
			iss.Labels.String(),
			iss.CreatedAt.Format("2006-01-02 15:04"),
		}); err != nil {
			return fmt.Errorf("render row: %w", err)
		}
	}
	return table.Render()
}

// Package schema creates the tables in dependency order.
package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	issuerepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/repo"
	sessionrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/repo"
)

type tableOwner interface {
	EnsureTable(ctx context.Context) error
}

// Ensure creates every table that does not exist yet. It is safe to run on
// every start.
func Ensure(ctx context.Context, db *sqlx.DB) error {
	steps := []struct {
		name  string
		owner tableOwner
	}{
		{"users", userrepo.NewUserRepo(db)},
		{"issues", issuerepo.NewIssueRepo(db)},
		{"sessions", sessionrepo.NewSessionRepo(db)},
	}
	for _, s := range steps {
		if err := s.owner.EnsureTable(ctx); err != nil {
			return fmt.Errorf("ensure %s table: %w", s.name, err)
		}
	}
	return nil
}

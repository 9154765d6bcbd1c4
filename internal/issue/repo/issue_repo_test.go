package repo_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/entity"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/schema"
	userentity "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-issue-tracker/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/database"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*repo.IssueRepo, *sqlx.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, DSN: filepath.Join(t.TempDir(), "issues.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Ensure(context.Background(), db))

	users := userrepo.NewUserRepo(db)
	for _, u := range []*userentity.User{
		{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "x", PasswordAlgo: "bcrypt:4", CreatedAt: base, UpdatedAt: base},
		{ID: 2, Username: "bob", Email: "bob@example.com", PasswordHash: "x", PasswordAlgo: "bcrypt:4", CreatedAt: base, UpdatedAt: base},
	} {
		require.NoError(t, users.Create(context.Background(), u))
	}
	return repo.NewIssueRepo(db), db
}

func seed(t *testing.T, r *repo.IssueRepo, id, reporter int64, title string, status entity.Status, prio entity.Priority, typ entity.Type, at time.Time) {
	t.Helper()
	require.NoError(t, r.Create(context.Background(), &entity.Issue{
		ID:         id,
		Title:      title,
		Type:       typ,
		Priority:   prio,
		Status:     status,
		ReporterID: reporter,
		CreatedAt:  at,
		UpdatedAt:  at,
	}))
}

func ids(issues []*entity.Issue) []int64 {
	out := make([]int64, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.ID)
	}
	return out
}

func TestIssueRepo_CreateAndGet(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	in := &entity.Issue{
		ID:          10,
		Title:       "Login broken",
		Description: "Cannot sign in",
		Type:        entity.TypeBug,
		Priority:    entity.PriorityHigh,
		Status:      entity.StatusOpen,
		ReporterID:  1,
		Assignee:    "carol",
		Labels:      entity.ParseLabels("auth, ui"),
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	require.NoError(t, r.Create(ctx, in))

	got, err := r.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Login broken", got.Title)
	assert.Equal(t, entity.PriorityHigh, got.Priority)
	assert.Equal(t, "carol", got.Assignee)
	assert.Equal(t, entity.Labels{"auth", "ui"}, got.Labels)
	assert.True(t, base.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)

	_, err = r.GetByID(ctx, 999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestIssueRepo_OptionalColumnsStayEmpty(t *testing.T) {
	r, _ := setup(t)
	seed(t, r, 1, 1, "No extras", entity.StatusOpen, entity.PriorityLow, entity.TypeTask, base)

	got, err := r.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, got.Assignee)
	assert.NotNil(t, got.Labels)
	assert.Empty(t, got.Labels)
}

func TestIssueRepo_List(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()
	seed(t, r, 1, 1, "Login broken", entity.StatusOpen, entity.PriorityHigh, entity.TypeBug, base)
	seed(t, r, 2, 1, "Add dark mode", entity.StatusOpen, entity.PriorityLow, entity.TypeFeature, base.Add(time.Minute))
	seed(t, r, 3, 1, "100% CPU on LOGIN page", entity.StatusResolved, entity.PriorityHigh, entity.TypeBug, base.Add(2*time.Minute))
	seed(t, r, 4, 2, "Bob's login issue", entity.StatusOpen, entity.PriorityHigh, entity.TypeBug, base.Add(3*time.Minute))

	tests := []struct {
		name string
		f    repo.Filter
		want []int64
	}{
		{"no filter, newest first", repo.Filter{}, []int64{3, 2, 1}},
		{"status", repo.Filter{Status: entity.StatusOpen}, []int64{2, 1}},
		{"priority", repo.Filter{Priority: entity.PriorityHigh}, []int64{3, 1}},
		{"type", repo.Filter{Type: entity.TypeFeature}, []int64{2}},
		{"query is case-insensitive", repo.Filter{Query: "login"}, []int64{3, 1}},
		{"percent matches literally", repo.Filter{Query: "100%"}, []int64{3}},
		{"underscore matches literally", repo.Filter{Query: "_"}, []int64{}},
		{"combined", repo.Filter{Status: entity.StatusOpen, Query: "LOGIN"}, []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.List(ctx, 1, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestIssueRepo_ListTieBreaksOnID(t *testing.T) {
	r, _ := setup(t)
	seed(t, r, 5, 1, "first", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)
	seed(t, r, 6, 1, "second", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)

	got, err := r.List(context.Background(), 1, repo.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 5}, ids(got))
}

func TestIssueRepo_Counts(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()
	seed(t, r, 1, 1, "a", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)
	seed(t, r, 2, 1, "b", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)
	seed(t, r, 3, 1, "c", entity.StatusResolved, entity.PriorityLow, entity.TypeBug, base)
	seed(t, r, 4, 2, "d", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)

	n, err := r.CountByStatus(ctx, 1, entity.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.CountByStatus(ctx, 1, entity.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	counts, err := r.CountsByStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[entity.Status]int{entity.StatusOpen: 2, entity.StatusResolved: 1}, counts)
}

func TestIssueRepo_UpdateStatus(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()
	seed(t, r, 1, 1, "a", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)

	later := base.Add(time.Hour)
	n, err := r.UpdateStatus(ctx, 1, entity.StatusClosed, later)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusClosed, got.Status)
	assert.True(t, later.Equal(got.UpdatedAt))

	n, err = r.UpdateStatus(ctx, 42, entity.StatusClosed, later)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIssueRepo_StatusCheckConstraint(t *testing.T) {
	r, _ := setup(t)
	seed(t, r, 1, 1, "a", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)

	_, err := r.UpdateStatus(context.Background(), 1, entity.Status("bogus"), base)
	assert.Error(t, err)
}

func TestIssueRepo_DeletingReporterCascades(t *testing.T) {
	r, db := setup(t)
	ctx := context.Background()
	seed(t, r, 1, 1, "a", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)
	seed(t, r, 2, 2, "b", entity.StatusOpen, entity.PriorityLow, entity.TypeBug, base)

	require.NoError(t, userrepo.NewUserRepo(db).Delete(ctx, 1))

	_, err := r.GetByID(ctx, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = r.GetByID(ctx, 2)
	assert.NoError(t, err)
}

func TestIssueRepo_UnknownReporterRejected(t *testing.T) {
	r, _ := setup(t)
	err := r.Create(context.Background(), &entity.Issue{
		ID: 1, Title: "orphan", Type: entity.TypeBug, Priority: entity.PriorityLow,
		Status: entity.StatusOpen, ReporterID: 99, CreatedAt: base, UpdatedAt: base,
	})
	assert.Error(t, err)
}

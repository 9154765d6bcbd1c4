package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/entity"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/database"
)

// Filter narrows a reporter's issue list. Empty fields do not filter.
type Filter struct {
	Status   entity.Status
	Priority entity.Priority
	Type     entity.Type
	// Query matches the title case-insensitively as a substring.
	Query string
}

// IssueRepo provides data access for the issues table using sqlx.
type IssueRepo struct {
	db *sqlx.DB
}

func NewIssueRepo(db *sqlx.DB) *IssueRepo { return &IssueRepo{db: db} }

// issueRow mirrors the issues table; nullable columns map to sql.Null*.
type issueRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Type        string         `db:"type"`
	Priority    string         `db:"priority"`
	Status      string         `db:"status"`
	ReporterID  int64          `db:"reporter_id"`
	Assignee    sql.NullString `db:"assignee"`
	Labels      sql.NullString `db:"labels"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r issueRow) toEntity() *entity.Issue {
	return &entity.Issue{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Type:        entity.Type(r.Type),
		Priority:    entity.Priority(r.Priority),
		Status:      entity.Status(r.Status),
		ReporterID:  r.ReporterID,
		Assignee:    r.Assignee.String,
		Labels:      entity.ParseLabels(r.Labels.String),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// EnsureTable creates the issues table and its indexes (idempotent).
func (r *IssueRepo) EnsureTable(ctx context.Context) error {
	ts := database.TimestampType(r.db.DriverName())
	return database.ExecAll(ctx, r.db,
		`CREATE TABLE IF NOT EXISTS issues (
  id BIGINT PRIMARY KEY,
  title VARCHAR(200) NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  type VARCHAR(20) NOT NULL DEFAULT 'bug',
  priority VARCHAR(20) NOT NULL DEFAULT 'medium',
  status VARCHAR(20) NOT NULL DEFAULT 'open',
  reporter_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  assignee VARCHAR(100),
  labels VARCHAR(255),
  created_at `+ts+` NOT NULL,
  updated_at `+ts+` NOT NULL,
  CONSTRAINT ck_issues_status CHECK (status IN ('open','in_progress','resolved','closed'))
)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_reporter_created ON issues (reporter_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_reporter_status ON issues (reporter_id, status)`,
	)
}

// Create inserts the issue as given; callers fill ID and timestamps.
func (r *IssueRepo) Create(ctx context.Context, i *entity.Issue) error {
	const q = `INSERT INTO issues (id, title, description, type, priority, status, reporter_id, assignee, labels, created_at, updated_at)
		VALUES (:id, :title, :description, :type, :priority, :status, :reporter_id, :assignee, :labels, :created_at, :updated_at)`
	row := issueRow{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Type:        string(i.Type),
		Priority:    string(i.Priority),
		Status:      string(i.Status),
		ReporterID:  i.ReporterID,
		Assignee:    nullable(i.Assignee),
		Labels:      nullable(i.Labels.String()),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

const selectIssue = `SELECT id, title, description, type, priority, status, reporter_id, assignee, labels, created_at, updated_at FROM issues`

// GetByID returns the issue with id or sql.ErrNoRows.
func (r *IssueRepo) GetByID(ctx context.Context, id int64) (*entity.Issue, error) {
	var row issueRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectIssue+` WHERE id = ?`), id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// List returns the reporter's issues matching f, newest first.
func (r *IssueRepo) List(ctx context.Context, reporterID int64, f Filter) ([]*entity.Issue, error) {
	conditions := []string{"reporter_id = ?"}
	args := []any{reporterID}

	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Query != "" {
		conditions = append(conditions, database.LowerFunc(r.db.DriverName())+"(title) LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(strings.ToLower(f.Query))+"%")
	}

	q := selectIssue + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY created_at DESC, id DESC"

	var rows []issueRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	issues := make([]*entity.Issue, 0, len(rows))
	for _, row := range rows {
		issues = append(issues, row.toEntity())
	}
	return issues, nil
}

// CountByStatus counts all of the reporter's issues in status.
func (r *IssueRepo) CountByStatus(ctx context.Context, reporterID int64, status entity.Status) (int, error) {
	var n int
	q := r.db.Rebind(`SELECT COUNT(*) FROM issues WHERE reporter_id = ? AND status = ?`)
	if err := r.db.GetContext(ctx, &n, q, reporterID, string(status)); err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return n, nil
}

// CountsByStatus returns the reporter's issue count per status in one query.
// Statuses without issues are absent from the map.
func (r *IssueRepo) CountsByStatus(ctx context.Context, reporterID int64) (map[entity.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	q := r.db.Rebind(`SELECT status, COUNT(*) AS n FROM issues WHERE reporter_id = ? GROUP BY status`)
	if err := r.db.SelectContext(ctx, &rows, q, reporterID); err != nil {
		return nil, fmt.Errorf("count issues: %w", err)
	}
	out := make(map[entity.Status]int, len(rows))
	for _, row := range rows {
		out[entity.Status(row.Status)] = row.N
	}
	return out, nil
}

// UpdateStatus writes status and updated_at. It returns the number of rows
// changed, 0 when the issue does not exist.
func (r *IssueRepo) UpdateStatus(ctx context.Context, id int64, status entity.Status, updatedAt time.Time) (int64, error) {
	q := r.db.Rebind(`UPDATE issues SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, string(status), updatedAt, id)
	if err != nil {
		return 0, fmt.Errorf("update issue status: %w", err)
	}
	return res.RowsAffected()
}

// escapeLike makes %, _ and the escape character itself match literally.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

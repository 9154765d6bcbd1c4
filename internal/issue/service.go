package issue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/entity"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/repo"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/utilities"
)

// FilterAll is the query value meaning "do not filter on this field".
const FilterAll = "all"

// Column widths of the issues table, in characters.
const (
	MaxTitleLen    = 200
	MaxAssigneeLen = 100
	MaxLabelsLen   = 255
)

var (
	ErrTitleRequired   = fmt.Errorf("%w: title is required", apperr.ErrValidation)
	ErrTitleTooLong    = fmt.Errorf("%w: title must be at most %d characters", apperr.ErrValidation, MaxTitleLen)
	ErrAssigneeTooLong = fmt.Errorf("%w: assignee must be at most %d characters", apperr.ErrValidation, MaxAssigneeLen)
	ErrLabelsTooLong   = fmt.Errorf("%w: labels must be at most %d characters", apperr.ErrValidation, MaxLabelsLen)
	ErrInvalidType     = fmt.Errorf("%w: unknown issue type", apperr.ErrValidation)
	ErrInvalidPriority = fmt.Errorf("%w: unknown priority", apperr.ErrValidation)
	ErrIssueNotFound   = fmt.Errorf("%w: issue not found", apperr.ErrNotFound)
	ErrInvalidStatus   = fmt.Errorf("%w: status must be one of open, in_progress, resolved, closed", apperr.ErrInvalidStatus)
)

// NewIssue carries the user-supplied fields of an issue being created.
type NewIssue struct {
	Title       string
	Description string
	Type        string
	Priority    string
	Assignee    string
	// Labels is the raw comma separated input.
	Labels string
}

// Filter is the dashboard filter as received from the query string.
type Filter struct {
	Status   string
	Priority string
	Type     string
	Query    string
}

func (f Filter) toRepo() repo.Filter {
	return repo.Filter{
		Status:   entity.Status(normalizeFilter(f.Status)),
		Priority: entity.Priority(normalizeFilter(f.Priority)),
		Type:     entity.Type(normalizeFilter(f.Type)),
		Query:    strings.TrimSpace(f.Query),
	}
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if v == FilterAll {
		return ""
	}
	return v
}

// Summary is what the dashboard shows: the filtered list and counters over
// all of the reporter's issues.
type Summary struct {
	Issues     []*entity.Issue
	Total      int
	Open       int
	InProgress int
	Resolved   int
	Closed     int
}

// Service implements the issue lifecycle on top of the repository.
type Service struct {
	repo   *repo.IssueRepo
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(r *repo.IssueRepo, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// CreateIssue stores a new open issue owned by reporterID. Empty type and
// priority fall back to bug and medium.
func (s *Service) CreateIssue(ctx context.Context, reporterID int64, in NewIssue) (*entity.Issue, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return nil, ErrTitleTooLong
	}
	assignee := strings.TrimSpace(in.Assignee)
	if utf8.RuneCountInString(assignee) > MaxAssigneeLen {
		return nil, ErrAssigneeTooLong
	}
	labels := entity.ParseLabels(in.Labels)
	if utf8.RuneCountInString(labels.String()) > MaxLabelsLen {
		return nil, ErrLabelsTooLong
	}
	typ := entity.TypeBug
	if v := strings.TrimSpace(in.Type); v != "" {
		typ = entity.Type(v)
	}
	if !typ.Valid() {
		return nil, ErrInvalidType
	}
	prio := entity.PriorityMedium
	if v := strings.TrimSpace(in.Priority); v != "" {
		prio = entity.Priority(v)
	}
	if !prio.Valid() {
		return nil, ErrInvalidPriority
	}

	now := s.now().Truncate(time.Microsecond)
	iss := &entity.Issue{
		ID:          utilities.NewID(),
		Title:       title,
		Description: in.Description,
		Type:        typ,
		Priority:    prio,
		Status:      entity.StatusOpen,
		ReporterID:  reporterID,
		Assignee:    assignee,
		Labels:      labels,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, iss); err != nil {
		return nil, err
	}
	s.logger.Infow("issue created", "issue_id", iss.ID, "reporter_id", reporterID, "type", typ, "priority", prio)
	return iss, nil
}

// ListIssues returns the reporter's issues matching f, newest first.
func (s *Service) ListIssues(ctx context.Context, reporterID int64, f Filter) ([]*entity.Issue, error) {
	return s.repo.List(ctx, reporterID, f.toRepo())
}

// CountByStatus counts the reporter's issues with exactly that status,
// ignoring any dashboard filter.
func (s *Service) CountByStatus(ctx context.Context, reporterID int64, status entity.Status) (int, error) {
	return s.repo.CountByStatus(ctx, reporterID, status)
}

// Dashboard builds the reporter's dashboard for f.
func (s *Service) Dashboard(ctx context.Context, reporterID int64, f Filter) (*Summary, error) {
	issues, err := s.ListIssues(ctx, reporterID, f)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountsByStatus(ctx, reporterID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{
		Issues:     issues,
		Open:       counts[entity.StatusOpen],
		InProgress: counts[entity.StatusInProgress],
		Resolved:   counts[entity.StatusResolved],
		Closed:     counts[entity.StatusClosed],
	}
	for _, n := range counts {
		sum.Total += n
	}
	return sum, nil
}

// GetIssue looks an issue up by id regardless of reporter.
func (s *Service) GetIssue(ctx context.Context, id int64) (*entity.Issue, error) {
	iss, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return iss, nil
}

// UpdateStatus moves iss to newStatus. On error iss is left untouched.
// updated_at always moves forward, even if the clock has not. Timestamps are
// kept at microsecond precision, the finest Postgres stores.
func (s *Service) UpdateStatus(ctx context.Context, iss *entity.Issue, newStatus string) (*entity.Issue, error) {
	status := entity.Status(strings.TrimSpace(newStatus))
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	prev := iss.UpdatedAt.Truncate(time.Microsecond)
	updatedAt := s.now().Truncate(time.Microsecond)
	if !updatedAt.After(prev) {
		updatedAt = prev.Add(time.Microsecond)
	}
	n, err := s.repo.UpdateStatus(ctx, iss.ID, status, updatedAt)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrIssueNotFound
	}
	s.logger.Infow("issue status updated", "issue_id", iss.ID, "from", iss.Status, "to", status)
	iss.Status = status
	iss.UpdatedAt = updatedAt
	return iss, nil
}

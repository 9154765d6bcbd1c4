package entity

import (
	"fmt"
	"strings"
	"time"
)

// Type is the kind of work an issue tracks.
type Type string

const (
	TypeBug         Type = "bug"
	TypeFeature     Type = "feature"
	TypeEnhancement Type = "enhancement"
	TypeTask        Type = "task"
)

// Types lists every Type in display order.
var Types = []Type{TypeBug, TypeFeature, TypeEnhancement, TypeTask}

func (t Type) Valid() bool {
	switch t {
	case TypeBug, TypeFeature, TypeEnhancement, TypeTask:
		return true
	}
	return false
}

func (t Type) Display() string {
	switch t {
	case TypeBug:
		return "Bug"
	case TypeFeature:
		return "Feature Request"
	case TypeEnhancement:
		return "Enhancement"
	case TypeTask:
		return "Task"
	}
	return string(t)
}

// Priority is the urgency of an issue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (p Priority) Display() string {
	if !p.Valid() {
		return string(p)
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Status is the lifecycle state of an issue. Any status may move to any other.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

func (s Status) Display() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusClosed:
		return "Closed"
	}
	return string(s)
}

// Labels is the ordered tag list of an issue. It is stored comma-joined.
type Labels []string

// ParseLabels splits a comma separated string, trims every segment and drops
// the empty ones. Order and duplicates are kept.
func ParseLabels(raw string) Labels {
	out := Labels{}
	if raw == "" {
		return out
	}
	for _, seg := range strings.Split(raw, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// String returns the storage form, e.g. "bug,frontend".
func (l Labels) String() string {
	return strings.Join(l, ",")
}

// Issue is a trackable unit of work owned by its reporter.
type Issue struct {
	ID          int64
	Title       string
	Description string
	Type        Type
	Priority    Priority
	Status      Status
	ReporterID  int64
	Assignee    string // free-text name, empty when unassigned
	Labels      Labels
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *Issue) String() string {
	return fmt.Sprintf("%s (%s)", i.Title, i.Status)
}

package model

import (
	"strings"
	"time"
)

// TimestampLayout is how created_at and history timestamps are stored.
const TimestampLayout = "2006-01-02 15:04:05"

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the accepted statuses in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// IsValid reports whether s is one of the accepted statuses. Case sensitive.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Defaults applied on create when a field is left blank.
const (
	DefaultPriority  = "Medium"
	DefaultUnit      = "Imagine"
	DefaultDeveloper = "Unassigned"
)

// History action tags.
const (
	ActionCreated      = "created"
	ActionEdited       = "edited"
	ActionCommentAdded = "comment_added"
)

// StatusChangedAction returns the history tag for a status update.
func StatusChangedAction(s Status) string {
	return "status_changed_to_" + string(s)
}

type Requirement struct {
	ID          int64
	Title       string
	Description string
	Status      Status
	Priority    string
	Progress    int
	Unit        string
	Developer   string
	CreatedAt   time.Time
	OwnerID     int64
	Comments    []Comment
}

type Comment struct {
	ID            int64
	RequirementID int64
	Text          string
	CreatedAt     time.Time
}

type HistoryEntry struct {
	ID            int64
	RequirementID int64
	Action        string
	Timestamp     time.Time
}

// RequirementInput carries raw form values for create and edit.
// Progress stays a string so that non-numeric input can be reported.
type RequirementInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Progress    string
	Unit        string
	Developer   string
}

// Normalize trims surrounding whitespace from every field.
func (in RequirementInput) Normalize() RequirementInput {
	return RequirementInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      strings.TrimSpace(in.Status),
		Priority:    strings.TrimSpace(in.Priority),
		Progress:    strings.TrimSpace(in.Progress),
		Unit:        strings.TrimSpace(in.Unit),
		Developer:   strings.TrimSpace(in.Developer),
	}
}

// Filter holds the optional list criteria. Blank fields impose no constraint.
type Filter struct {
	Search    string
	Status    string
	Priority  string
	Unit      string
	Developer string
}

// Normalize trims every criterion so whitespace-only values count as absent.
func (f Filter) Normalize() Filter {
	return Filter{
		Search:    strings.TrimSpace(f.Search),
		Status:    strings.TrimSpace(f.Status),
		Priority:  strings.TrimSpace(f.Priority),
		Unit:      strings.TrimSpace(f.Unit),
		Developer: strings.TrimSpace(f.Developer),
	}
}

// IsEmpty reports whether no criterion is set.
func (f Filter) IsEmpty() bool {
	return f.Normalize() == Filter{}
}

// Listing is the result of a list query.
type Listing struct {
	Requirements []Requirement
	// StatusCounts covers every requirement, independent of the filter.
	StatusCounts map[Status]int
	Filter       Filter
}

// Total returns the number of requirements across all statuses.
func (l *Listing) Total() int {
	n := 0
	for _, c := range l.StatusCounts {
		n += c
	}
	return n
}

// StatusUpdate is returned by a successful status change.
type StatusUpdate struct {
	ID        int64  `json:"id"`
	NewStatus Status `json:"new_status"`
}

// RowKind orders the rows of one requirement in an export.
type RowKind int

const (
	RowRequirement RowKind = iota
	RowComment
	RowAction
)

// ExportRow is one record of the denormalized export stream. Only the fields
// matching Kind are populated.
type ExportRow struct {
	RequirementID int64
	Kind          RowKind

	Title       string
	Description string
	Status      string
	Priority    string
	Progress    int
	Unit        string
	Developer   string
	CreatedAt   string

	Comment     string
	CommentDate string

	Action     string
	ActionDate string
}

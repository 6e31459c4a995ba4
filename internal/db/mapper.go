package db

import (
	"database/sql"
	"time"

	"github.com/baiirun/reqtrack/internal/model"
)

const timestampLayout = model.TimestampLayout

const selectRequirement = `
	SELECT id, title, description, status, priority, progress, unit, developer, created_at, owner_id
	FROM requirements`

// requirementRow mirrors a requirements row. Columns added by migrations can
// be NULL in older data.
type requirementRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Status      sql.NullString `db:"status"`
	Priority    sql.NullString `db:"priority"`
	Progress    sql.NullInt64  `db:"progress"`
	Unit        sql.NullString `db:"unit"`
	Developer   sql.NullString `db:"developer"`
	CreatedAt   sql.NullString `db:"created_at"`
	OwnerID     sql.NullInt64  `db:"owner_id"`
}

func (r requirementRow) toModel() model.Requirement {
	return model.Requirement{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Status:      model.Status(r.Status.String),
		Priority:    r.Priority.String,
		Progress:    int(r.Progress.Int64),
		Unit:        r.Unit.String,
		Developer:   r.Developer.String,
		CreatedAt:   parseTimestamp(r.CreatedAt.String),
		OwnerID:     r.OwnerID.Int64,
	}
}

type commentRow struct {
	ID            int64          `db:"id"`
	RequirementID int64          `db:"requirement_id"`
	Text          string         `db:"comment"`
	CreatedAt     sql.NullString `db:"created_at"`
}

func (r commentRow) toModel() model.Comment {
	return model.Comment{
		ID:            r.ID,
		RequirementID: r.RequirementID,
		Text:          r.Text,
		CreatedAt:     parseTimestamp(r.CreatedAt.String),
	}
}

type historyRow struct {
	ID            int64          `db:"id"`
	RequirementID int64          `db:"requirement_id"`
	Action        string         `db:"action"`
	Timestamp     sql.NullString `db:"timestamp"`
}

func (r historyRow) toModel() model.HistoryEntry {
	return model.HistoryEntry{
		ID:            r.ID,
		RequirementID: r.RequirementID,
		Action:        r.Action,
		Timestamp:     parseTimestamp(r.Timestamp.String),
	}
}

type exportRow struct {
	RequirementID int64  `db:"requirement_id"`
	Kind          int    `db:"kind"`
	Seq           int64  `db:"seq"`
	Title         string `db:"title"`
	Description   string `db:"description"`
	Status        string `db:"status"`
	Priority      string `db:"priority"`
	Progress      int    `db:"progress"`
	Unit          string `db:"unit"`
	Developer     string `db:"developer"`
	CreatedAt     string `db:"created_at"`
	Comment       string `db:"comment"`
	CommentDate   string `db:"comment_date"`
	Action        string `db:"action"`
	ActionDate    string `db:"action_date"`
}

func (r exportRow) toModel() model.ExportRow {
	return model.ExportRow{
		RequirementID: r.RequirementID,
		Kind:          model.RowKind(r.Kind),
		Title:         r.Title,
		Description:   r.Description,
		Status:        r.Status,
		Priority:      r.Priority,
		Progress:      r.Progress,
		Unit:          r.Unit,
		Developer:     r.Developer,
		CreatedAt:     r.CreatedAt,
		Comment:       r.Comment,
		CommentDate:   r.CommentDate,
		Action:        r.Action,
		ActionDate:    r.ActionDate,
	}
}

// parseTimestamp reads the stored text layout, falling back to RFC 3339.
// Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(timestampLayout, s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

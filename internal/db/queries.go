package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/baiirun/reqtrack/internal/model"
)

// List returns the requirements matching f in creation order, each with its
// comments, plus status counts over all requirements.
//
// Every present equality criterion also admits rows where that column is
// NULL. Search is a literal, ASCII case-insensitive substring match on title,
// description or developer.
func (db *DB) List(ctx context.Context, f model.Filter) (*model.Listing, error) {
	f = f.Normalize()
	where, args := filterClause(f)
	query := selectRequirement + ` WHERE 1=1` + where + ` ORDER BY id ASC`

	var rows []requirementRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}

	reqs := make([]model.Requirement, 0, len(rows))
	for _, r := range rows {
		reqs = append(reqs, r.toModel())
	}

	comments, err := db.commentsFor(ctx, where, args)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i].Comments = comments[reqs[i].ID]
	}

	counts, err := db.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Listing{Requirements: reqs, StatusCounts: counts, Filter: f}, nil
}

// filterClause builds the AND-ed predicate for f. f must be normalized.
func filterClause(f model.Filter) (string, []any) {
	var b strings.Builder
	args := []any{}

	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		b.WriteString(` AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR developer LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	for _, c := range []struct {
		column string
		value  string
	}{
		{"status", f.Status},
		{"priority", f.Priority},
		{"unit", f.Unit},
		{"developer", f.Developer},
	} {
		if c.value == "" {
			continue
		}
		fmt.Fprintf(&b, ` AND (%s = ? OR %s IS NULL)`, c.column, c.column)
		args = append(args, c.value)
	}

	return b.String(), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// StatusCounts returns the number of requirements per status.
func (db *DB) StatusCounts(ctx context.Context) (map[model.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err := db.SelectContext(ctx, &rows, `
		SELECT COALESCE(status, '') AS status, COUNT(*) AS count
		FROM requirements
		GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}

	counts := make(map[model.Status]int, len(rows))
	for _, r := range rows {
		counts[model.Status(r.Status)] += r.Count
	}
	return counts, nil
}

// ExportRows returns the denormalized export stream: for each requirement,
// its own row, then its comments, then its history entries. Rows are ordered
// by requirement id, kind and insertion order. Comments and history whose
// requirement does not exist are left out.
func (db *DB) ExportRows(ctx context.Context) ([]model.ExportRow, error) {
	var rows []exportRow
	err := db.SelectContext(ctx, &rows, `
		SELECT r.id AS requirement_id, 0 AS kind, r.id AS seq,
		       r.title AS title,
		       COALESCE(r.description, '') AS description,
		       COALESCE(r.status, '') AS status,
		       COALESCE(r.priority, '') AS priority,
		       COALESCE(r.progress, 0) AS progress,
		       COALESCE(r.unit, '') AS unit,
		       COALESCE(r.developer, '') AS developer,
		       COALESCE(r.created_at, '') AS created_at,
		       '' AS comment, '' AS comment_date, '' AS action, '' AS action_date
		FROM requirements r
		UNION ALL
		SELECT c.requirement_id, 1, c.id, '', '', '', '', 0, '', '', '',
		       c.comment, COALESCE(c.created_at, ''), '', ''
		FROM comments c
		JOIN requirements r ON r.id = c.requirement_id
		UNION ALL
		SELECT h.requirement_id, 2, h.id, '', '', '', '', 0, '', '', '',
		       '', '', h.action, COALESCE(h.timestamp, '')
		FROM history h
		JOIN requirements r ON r.id = h.requirement_id
		ORDER BY requirement_id, kind, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}

	out := make([]model.ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

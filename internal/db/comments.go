package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/baiirun/reqtrack/internal/model"
)

// AddComment attaches a comment to an existing requirement and records
// "comment_added". Comments on unknown ids are rejected.
func (db *DB) AddComment(ctx context.Context, requirementID int64, text string) error {
	if err := model.ValidateComment(text); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	now := db.timestamp()

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM requirements WHERE id = ?`, requirementID); err != nil {
			return fmt.Errorf("failed to check requirement: %w", err)
		}
		if count == 0 {
			return &model.NotFoundError{ID: requirementID}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO comments (requirement_id, comment, created_at) VALUES (?, ?, ?)`,
			requirementID, text, now)
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		return recordHistory(ctx, tx, requirementID, model.ActionCommentAdded, now)
	})
}

// commentsFor loads the comments of the requirements matched by the
// predicate where (as built by filterClause), grouped by requirement id and
// in insertion order. The bind count depends only on the predicate, not on
// how many requirements it matches.
func (db *DB) commentsFor(ctx context.Context, where string, args []any) (map[int64][]model.Comment, error) {
	query := `
		SELECT id, requirement_id, comment, created_at
		FROM comments
		WHERE requirement_id IN (SELECT id FROM requirements WHERE 1=1` + where + `)
		ORDER BY requirement_id, id`

	var rows []commentRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	out := make(map[int64][]model.Comment)
	for _, r := range rows {
		out[r.RequirementID] = append(out[r.RequirementID], r.toModel())
	}
	return out, nil
}

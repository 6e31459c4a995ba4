package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/baiirun/reqtrack/internal/model"
)

// recordHistory appends an audit entry inside the caller's transaction.
// History rows are never updated or deleted.
func recordHistory(ctx context.Context, tx *sqlx.Tx, requirementID int64, action, ts string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history (requirement_id, action, timestamp) VALUES (?, ?, ?)`,
		requirementID, action, ts); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// History returns a requirement's history entries in chronological order.
func (db *DB) History(ctx context.Context, requirementID int64) ([]model.HistoryEntry, error) {
	var rows []historyRow
	err := db.SelectContext(ctx, &rows, `
		SELECT id, requirement_id, action, timestamp
		FROM history
		WHERE requirement_id = ?
		ORDER BY id ASC`, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	entries := make([]model.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toModel())
	}
	return entries, nil
}
